package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"brewtrack/internal/backend"
	"brewtrack/internal/config"
	"brewtrack/internal/log"
	"brewtrack/internal/notify"
	"brewtrack/internal/store"
	"brewtrack/internal/tracker"
)

// App holds what every brewtrack command needs. Gateway may be preset, in
// which case the backend factory is bypassed.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Factory backend.Factory
	Gateway store.Gateway

	// IsInteractive reports whether missing add fields may be prompted for.
	IsInteractive func() bool

	backendFlag string
	opened      *backend.BackendResult
}

// NewRootCmd creates the top-level "brewtrack" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	if app.Config == nil {
		app.Config = config.Load()
	}
	if app.Logger == nil {
		app.Logger = log.Discard()
	}
	if app.Factory == nil {
		app.Factory = backend.NewFactory(app.Logger)
	}
	if app.IsInteractive == nil {
		app.IsInteractive = func() bool { return false }
	}

	root := &cobra.Command{
		Use:           "brewtrack",
		Short:         "Microbrewery task and expense tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}
	app.backendFlag = ""
	root.PersistentFlags().Var(backendValue{&app.backendFlag}, "backend",
		fmt.Sprintf("data backend %v (overrides DATA_BACKEND)", backend.GetBackendTypeStrings()))

	root.AddCommand(
		newServeCmd(app),
		newTUICmd(app),
		newTasksCmd(app),
		newExpensesCmd(app),
	)

	return root
}

// backendValue rejects unknown backends while flags are parsed.
type backendValue struct{ v *string }

var _ pflag.Value = backendValue{}

func (b backendValue) Type() string { return "backend" }

func (b backendValue) String() string {
	if b.v == nil {
		return ""
	}
	return *b.v
}

func (b backendValue) Set(s string) error {
	if !backend.BackendType(s).IsValid() {
		return fmt.Errorf("invalid backend type %q, must be one of %v", s, backend.GetBackendTypeStrings())
	}
	*b.v = s
	return nil
}

// gateway returns the configured gateway, opening the backend on first use.
func (a *App) gateway(ctx context.Context) (store.Gateway, store.Suggestions, error) {
	if a.Gateway != nil {
		return a.Gateway, store.LoadSuggestions(a.Config.DataDir), nil
	}
	if a.opened != nil {
		return a.opened.Gateway, a.opened.Suggestions, nil
	}

	cfg := *a.Config
	if a.backendFlag != "" {
		cfg.DataBackend = a.backendFlag
	}
	bcfg, err := backend.FromAppConfig(&cfg)
	if err != nil {
		return nil, store.Suggestions{}, err
	}
	res, err := a.Factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, store.Suggestions{}, err
	}
	a.opened = res
	return res.Gateway, res.Suggestions, nil
}

// Close releases the backend opened by the last command, if any. It is safe
// to call more than once.
func (a *App) Close() error {
	if a.opened == nil {
		return nil
	}
	err := a.opened.Close()
	a.opened = nil
	return err
}

// session builds a tracker over the gateway with notifications printed to
// out, then loads both panels. Load failures are reported as notifications
// and do not abort the command.
func (a *App) session(ctx context.Context, out io.Writer) (*tracker.Tracker, error) {
	gw, _, err := a.gateway(ctx)
	if err != nil {
		return nil, err
	}
	tr, err := a.newTracker(gw, printer(out))
	if err != nil {
		return nil, err
	}
	_ = tr.Load(ctx)
	return tr, nil
}

func (a *App) newTracker(gw store.Gateway, n notify.Notifier) (*tracker.Tracker, error) {
	policy, err := tracker.ParseSyncPolicy(a.Config.StatusSync)
	if err != nil {
		return nil, err
	}
	return tracker.New(gw, tracker.Options{
		Notifier: n,
		Logger:   a.Logger.WithComponent(log.ComponentTracker),
		Sync:     policy,
	}), nil
}
