package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/psadmin/internal/client/models"
	"github.com/dmitrijs2005/psadmin/internal/client/remote/migrations"
	"github.com/dmitrijs2005/psadmin/internal/common"
	"github.com/dmitrijs2005/psadmin/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresStore keeps the credential and player records in PostgreSQL.
type PostgresStore struct {
	db     dbx.DBTX
	closer func() error
}

func NewPostgresStore(db dbx.DBTX) *PostgresStore {
	return &PostgresStore{db: db, closer: func() error { return nil }}
}

// OpenPostgres connects with the pgx driver and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := MigratePostgres(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	s := NewPostgresStore(db)
	s.closer = db.Close
	return s, nil
}

func MigratePostgres(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.Migrations)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

func (s *PostgresStore) GetAdminCredential(ctx context.Context) (*models.Credential, error) {
	query :=
		`SELECT username, password_hash FROM admin_credentials
		 WHERE id = 1
		 `

	cred := &models.Credential{}
	err := s.db.QueryRowContext(ctx, query).Scan(&cred.Username, &cred.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return cred, nil
}

func (s *PostgresStore) ListPlayers(ctx context.Context) ([]*models.Player, error) {
	query :=
		`SELECT id, username, full_name, date_of_birth, gender, phone_number, email_address,
		        anxiety_percentage, total_time, played_at
		 FROM players
		 ORDER BY id
		 `

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p := &models.Player{}
		var playedAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.Username, &p.FullName, &p.DateOfBirth, &p.Gender,
			&p.PhoneNumber, &p.EmailAddress, &p.AnxietyPercentage, &p.TotalTime, &playedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if playedAt.Valid {
			p.Timestamp = models.Timestamp{Time: playedAt.Time}
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return players, nil
}

func (s *PostgresStore) UpdatePlayer(ctx context.Context, id string, u models.PlayerUpdate) error {
	query :=
		`UPDATE players
		 SET username = $2, full_name = $3, date_of_birth = $4, gender = $5,
		     phone_number = $6, email_address = $7
		 WHERE id = $1
		 `

	res, err := s.db.ExecContext(ctx, query, id, u.Username, u.FullName, u.DateOfBirth,
		u.Gender, u.PhoneNumber, u.EmailAddress)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireAffected(res, common.ErrNotFound)
}

func (s *PostgresStore) DeletePlayer(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireAffected(res, common.ErrNotFound)
}

func (s *PostgresStore) Close() error {
	return s.closer()
}
