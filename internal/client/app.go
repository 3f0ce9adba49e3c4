package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/tui"
	"github.com/MKhiriev/go-offline-sync/internal/workers"
	"github.com/MKhiriev/go-offline-sync/models"
)

const defaultCommand = "sync"

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrWrongArguments = errors.New("wrong arguments")
)

type command struct {
	// needsOpen opens the local database before the command runs.
	needsOpen bool
	args      int
	usage     string
	run       func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"register": {needsOpen: true, args: 2, usage: "register <login> <password>", run: (*App).register},
	"login":    {needsOpen: true, args: 2, usage: "login <login> <password>", run: (*App).login},
	"logout":   {needsOpen: true, usage: "logout", run: (*App).logout},
	"sync":     {needsOpen: true, usage: "sync", run: (*App).sync},
	"push":     {needsOpen: true, usage: "push", run: (*App).push},
	"pull":     {needsOpen: true, usage: "pull", run: (*App).pull},
	"status":   {needsOpen: true, usage: "status", run: (*App).status},
	"heal":     {usage: "heal", run: (*App).heal},
	"retry":    {needsOpen: true, usage: "retry", run: (*App).retry},
	"daemon":   {needsOpen: true, usage: "daemon", run: (*App).daemon},
	"console":  {needsOpen: true, usage: "console", run: (*App).console},
	"put":      {needsOpen: true, args: 2, usage: "put <table> <json-row>", run: (*App).put},
	"get":      {needsOpen: true, args: 2, usage: "get <table> <json-pk>", run: (*App).get},
	"delete":   {needsOpen: true, args: 2, usage: "delete <table> <json-pk>", run: (*App).delete},
}

type App struct {
	services *service.ClientServices
	ui       *tui.TUI
	workers  *workers.Workers
	args     []string

	out    io.Writer
	logger *logger.Logger
}

func NewApp(services *service.ClientServices, ui *tui.TUI, background *workers.Workers, args []string, logger *logger.Logger) (*App, error) {
	if services == nil || services.Engine == nil {
		return nil, errors.New("client services are not initialized")
	}

	return &App{
		services: services,
		ui:       ui,
		workers:  background,
		args:     args,
		out:      os.Stdout,
		logger:   logger,
	}, nil
}

// Run implements Client.
func (a *App) Run(ctx context.Context) error {
	name, args := defaultCommand, a.args
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownCommand, name)
	}
	if len(args) != cmd.args {
		return fmt.Errorf("%w: usage: %s", ErrWrongArguments, cmd.usage)
	}

	ctx = a.logger.With().Str("command", name).Logger().WithContext(ctx)
	defer a.services.Engine.Close()

	if cmd.needsOpen {
		report, err := a.services.Engine.Open(ctx)
		if err != nil {
			return fmt.Errorf("open local database: %w", err)
		}
		a.reportHeal(report)
	}

	return cmd.run(a, ctx, args)
}

func (a *App) reportHeal(report models.HealReport) {
	if !report.Rebuilt {
		return
	}
	fmt.Fprintf(a.out, "local database rebuilt (%d queued changes kept, rehydrated: %t)\n",
		report.PreservedChanges, report.Rehydrated)
	for _, reason := range report.Reasons {
		fmt.Fprintf(a.out, "  - %s\n", reason)
	}
}

func (a *App) register(ctx context.Context, args []string) error {
	if err := a.services.AuthService.Register(ctx, models.User{Login: args[0], Password: args[1]}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered as %s\n", args[0])
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	userID, err := a.services.AuthService.Login(ctx, models.User{Login: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s (user id %d)\n", args[0], userID)
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	if err := a.services.AuthService.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *App) sync(ctx context.Context, _ []string) error {
	pushed, pulled, err := a.services.Engine.Sync(ctx)
	a.printPush(pushed)
	a.printPull(pulled)
	return err
}

func (a *App) push(ctx context.Context, _ []string) error {
	pushed, err := a.services.Engine.SyncUp(ctx)
	a.printPush(pushed)
	return err
}

func (a *App) pull(ctx context.Context, _ []string) error {
	pulled, err := a.services.Engine.SyncDown(ctx)
	a.printPull(pulled)
	return err
}

func (a *App) printPush(s models.PushSummary) {
	fmt.Fprintf(a.out, "push: %d applied, %d conflicts, %d failed\n", s.Applied, s.Conflicts, s.Failed)
}

func (a *App) printPull(s models.PullSummary) {
	fmt.Fprintf(a.out, "pull: %d rows applied in %d tables\n", s.RowsApplied, len(s.TablesUpdated))
}

func (a *App) status(ctx context.Context, _ []string) error {
	status, err := a.services.Engine.Status(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(status)
}

func (a *App) heal(ctx context.Context, _ []string) error {
	report, err := a.services.Engine.Heal(ctx)
	if err != nil {
		return err
	}
	if !report.Rebuilt {
		fmt.Fprintln(a.out, "local database matches the schema")
		return nil
	}
	a.reportHeal(report)
	return nil
}

func (a *App) retry(ctx context.Context, _ []string) error {
	n, err := a.services.Engine.RetryRejected(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d rejected changes queued again\n", n)
	return nil
}

func (a *App) daemon(ctx context.Context, _ []string) error {
	if a.workers == nil {
		return errors.New("no background workers configured")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	a.logger.Info().Msg("sync daemon started")
	err := a.workers.Run(ctx)
	a.logger.Info().Msg("sync daemon stopped")
	return err
}

func (a *App) console(ctx context.Context, _ []string) error {
	if a.ui == nil {
		return errors.New("console is not available")
	}
	return a.ui.Console(ctx)
}

func (a *App) put(ctx context.Context, args []string) error {
	row, err := decodeRow(args[1])
	if err != nil {
		return err
	}
	rows, err := a.services.Engine.Rows()
	if err != nil {
		return err
	}
	return rows.PutRow(ctx, args[0], row)
}

func (a *App) get(ctx context.Context, args []string) error {
	pk, err := decodeRow(args[1])
	if err != nil {
		return err
	}
	rows, err := a.services.Engine.Rows()
	if err != nil {
		return err
	}

	row, err := rows.GetRow(ctx, args[0], pk)
	if err != nil {
		return err
	}
	return a.printJSON(row)
}

func (a *App) delete(ctx context.Context, args []string) error {
	pk, err := decodeRow(args[1])
	if err != nil {
		return err
	}
	rows, err := a.services.Engine.Rows()
	if err != nil {
		return err
	}
	return rows.DeleteRow(ctx, args[0], pk)
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// decodeRow keeps numbers as json.Number so integer keys are not turned
// into floats.
func decodeRow(s string) (models.Row, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var row models.Row
	if err := dec.Decode(&row); err != nil {
		return nil, fmt.Errorf("%w: %q is not a JSON object: %w", ErrWrongArguments, s, err)
	}
	if len(row) == 0 {
		return nil, fmt.Errorf("%w: empty JSON object", ErrWrongArguments)
	}
	return row, nil
}
