package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/psadmin/internal/client/models"
	"github.com/dmitrijs2005/psadmin/internal/common"
)

const (
	adminPath   = "admin"
	playersPath = "users"
)

// FirebaseStore talks to a Firebase Realtime Database over its REST API.
// Paths map to `{base}/{path}.json`; a JSON `null` body means the node
// does not exist.
type FirebaseStore struct {
	baseURL string
	auth    string
	client  *http.Client
}

// NewFirebaseStore returns a store rooted at baseURL, e.g.
// https://project-default-rtdb.firebaseio.com. auth, when non-empty, is
// sent as the `auth` query parameter (a database secret or ID token).
func NewFirebaseStore(baseURL, auth string, client *http.Client) *FirebaseStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &FirebaseStore{baseURL: strings.TrimRight(baseURL, "/"), auth: auth, client: client}
}

func (f *FirebaseStore) GetAdminCredential(ctx context.Context) (*models.Credential, error) {
	var cred *models.Credential
	if err := f.do(ctx, http.MethodGet, adminPath, nil, &cred); err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, common.ErrNotFound
	}
	return cred, nil
}

// ListPlayers returns the players ordered by key. The database serves a
// node whose keys are all small integers as a JSON array; the index is
// then the id and null slots are skipped.
func (f *FirebaseStore) ListPlayers(ctx context.Context) ([]*models.Player, error) {
	var raw json.RawMessage
	if err := f.do(ctx, http.MethodGet, playersPath, nil, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return decodePlayerArray(trimmed)
	}

	var byID map[string]*models.Player
	if err := json.Unmarshal(trimmed, &byID); err != nil {
		return nil, fmt.Errorf("firebase %s %s: decode: %w", http.MethodGet, playersPath, err)
	}

	ids := make([]string, 0, len(byID))
	for id, p := range byID {
		if p != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	players := make([]*models.Player, 0, len(ids))
	for _, id := range ids {
		p := byID[id]
		p.ID = id
		players = append(players, p)
	}
	return players, nil
}

func decodePlayerArray(raw []byte) ([]*models.Player, error) {
	var list []*models.Player
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("firebase %s %s: decode: %w", http.MethodGet, playersPath, err)
	}

	players := make([]*models.Player, 0, len(list))
	for i, p := range list {
		if p == nil {
			continue
		}
		p.ID = strconv.Itoa(i)
		players = append(players, p)
	}
	return players, nil
}

func (f *FirebaseStore) UpdatePlayer(ctx context.Context, id string, u models.PlayerUpdate) error {
	if err := f.ensurePlayer(ctx, id); err != nil {
		return err
	}
	return f.do(ctx, http.MethodPatch, playersPath+"/"+url.PathEscape(id), u, nil)
}

func (f *FirebaseStore) DeletePlayer(ctx context.Context, id string) error {
	if err := f.ensurePlayer(ctx, id); err != nil {
		return err
	}
	return f.do(ctx, http.MethodDelete, playersPath+"/"+url.PathEscape(id), nil, nil)
}

// ensurePlayer checks the node exists; PATCH on a missing node would
// silently create it.
func (f *FirebaseStore) ensurePlayer(ctx context.Context, id string) error {
	var raw json.RawMessage
	if err := f.do(ctx, http.MethodGet, playersPath+"/"+url.PathEscape(id), nil, &raw); err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return common.ErrNotFound
	}
	return nil
}

func (f *FirebaseStore) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

func (f *FirebaseStore) endpoint(path string) string {
	u := f.baseURL + "/" + path + ".json"
	if f.auth != "" {
		u += "?" + url.Values{"auth": {f.auth}}.Encode()
	}
	return u
}

func (f *FirebaseStore) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, f.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("firebase %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("firebase %s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("firebase %s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("firebase %s %s: decode: %w", method, path, err)
	}
	return nil
}
