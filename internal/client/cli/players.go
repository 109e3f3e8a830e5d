package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/psadmin/internal/client/models"
	"github.com/dmitrijs2005/psadmin/internal/client/players"
)

var errUsage = errors.New("usage")

// List prints the player table. An optional column argument toggles the
// sort the same way clicking a column header does.
func (a *App) List(ctx context.Context, args []string) error {
	if len(args) > 0 {
		col, err := players.ParseColumn(args[0])
		if err != nil {
			return err
		}
		a.sort = a.sort.Toggle(col)
	}

	callCtx, cancel := a.callCtx(ctx)
	defer cancel()

	list, err := a.players.List(callCtx, a.sort)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(a.out, "No player data yet")
		return nil
	}

	fmt.Fprintf(a.out, "Sorted by %s (%s)\n", a.sort.Column, a.sort.Order)
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tFULL NAME\tANXIETY\tRECOMMENDATION\tPLAY TIME\tDATE")
	for _, p := range list {
		level := players.Assess(p.AnxietyPercentage)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%% (%s)\t%s\t%s\t%s\n",
			p.ID,
			p.Username,
			dash(p.FullName),
			p.AnxietyPercentage,
			level.Name,
			level.Recommendation,
			players.FormatPlayTime(p.TotalTime),
			formatDate(p.Timestamp),
		)
	}
	return tw.Flush()
}

// Stats prints the dashboard summary figures.
func (a *App) Stats(ctx context.Context) error {
	callCtx, cancel := a.callCtx(ctx)
	defer cancel()

	list, err := a.players.List(callCtx, a.sort)
	if err != nil {
		return err
	}

	s := players.Summarize(list)
	fmt.Fprintf(a.out, "Total players: %d\n", s.Total)
	fmt.Fprintf(a.out, "Average anxiety: %.1f%%\n", s.AverageAnxiety)
	fmt.Fprintf(a.out, "Need consultation: %d\n", s.NeedConsultation)
	return nil
}

// Edit walks through the editable fields of one player, prefilled with the
// current values.
func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: edit <id>", errUsage)
	}
	id := args[0]

	p, err := a.getPlayer(ctx, id)
	if err != nil {
		return err
	}

	form := models.UpdateFrom(p)
	fields := []struct {
		label string
		value *string
	}{
		{"Username", &form.Username},
		{"Full name", &form.FullName},
		{"Date of birth", &form.DateOfBirth},
		{"Gender", &form.Gender},
		{"Phone number", &form.PhoneNumber},
		{"Email address", &form.EmailAddress},
	}
	for _, f := range fields {
		v, err := GetWithDefault(a.reader, f.label, *f.value, a.out)
		if err != nil {
			return err
		}
		*f.value = v
	}

	callCtx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.players.Update(callCtx, id, form); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Player updated")
	return nil
}

// Delete removes one player after confirmation.
func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: delete <id>", errUsage)
	}
	id := args[0]

	p, err := a.getPlayer(ctx, id)
	if err != nil {
		return err
	}

	ok, err := Confirm(a.reader, fmt.Sprintf("Are you sure you want to delete %s's data? This action cannot be undone.", p.Username), a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	callCtx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.players.Delete(callCtx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Player deleted")
	return nil
}

// Export uploads the current (sorted) player list.
func (a *App) Export(ctx context.Context) error {
	if a.exporter == nil {
		return errors.New("export is not configured (set s3_bucket)")
	}

	callCtx, cancel := a.callCtx(ctx)
	defer cancel()

	list, err := a.players.List(callCtx, a.sort)
	if err != nil {
		return err
	}
	key, err := a.exporter.Export(callCtx, list)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d players to %s\n", len(list), key)
	return nil
}

func (a *App) getPlayer(ctx context.Context, id string) (*models.Player, error) {
	callCtx, cancel := a.callCtx(ctx)
	defer cancel()
	return a.players.Get(callCtx, id)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatDate(t models.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
