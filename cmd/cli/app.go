package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/jobassist/internal/api"
	"github.com/and161185/jobassist/internal/config"
	"github.com/and161185/jobassist/internal/errs"
	"github.com/and161185/jobassist/internal/guard"
	"github.com/and161185/jobassist/internal/migrate"
	"github.com/and161185/jobassist/internal/service"
	"github.com/and161185/jobassist/internal/session"
	"github.com/and161185/jobassist/internal/workflow"
)

// routeKey binds a command to a guarded view path.
const routeKey = "route"

// app holds everything a command needs; it is assembled in PersistentPreRunE.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfgPath string
	jsonOut bool
	verbose bool

	cfg      config.Config
	log      *zap.Logger
	store    *session.Store
	client   *api.Client
	guard    *guard.Guard
	accounts *service.AccountServiceImpl
	settings *service.SettingsService

	cancel  context.CancelFunc
	closers []func()
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut, log: zap.NewNop()}
}

func (a *app) close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.log.Sync()
}

// routed marks cmd as a view that the guard must admit.
func routed(cmd *cobra.Command, route string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[routeKey] = route
	return cmd
}

// setup loads config, restores the session and checks the guard.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.verbose {
		a.cfg.Log.Level = "debug"
		a.cfg.Log.Format = "console"
	}
	if a.log, err = buildLogger(a.cfg.Log, a.errOut); err != nil {
		return err
	}

	if a.cfg.API.Timeout > 0 {
		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.API.Timeout)
		a.cancel = cancel
		cmd.SetContext(ctx)
	}
	ctx := cmd.Context()

	p, err := a.persister(ctx)
	if err != nil {
		return err
	}
	a.store = session.New(p, a.log.Named("session"))
	if err := a.store.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	a.client, err = api.New(a.cfg.API.BaseURL, a.store.TokenSource(), api.WithLogger(a.log.Named("http")))
	if err != nil {
		return err
	}
	a.guard = guard.New(a.store)
	a.accounts = service.NewAccountService(a.client, a.store, a.log.Named("account"))
	a.settings = service.NewSettingsService(a.client, a.log.Named("settings"))

	return a.admit(cmd)
}

func (a *app) persister(ctx context.Context) (session.Persister, error) {
	switch a.cfg.Session.Backend {
	case config.BackendPostgres:
		if err := migrate.Up(ctx, a.cfg.Session.DSN); err != nil {
			return nil, fmt.Errorf("migrate session store: %w", err)
		}
		pg, err := session.NewPGStore(ctx, a.cfg.Session.DSN, a.cfg.Session.Profile, a.cfg.Session.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("connect session store: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		return pg, nil
	default:
		dir := a.cfg.Session.Dir
		if dir == "" {
			dir = session.DefaultDir()
		}
		return session.NewFileStore(dir, a.cfg.Session.Passphrase), nil
	}
}

// admit runs the guard for the command's route, if it has one.
func (a *app) admit(cmd *cobra.Command) error {
	route, ok := cmd.Annotations[routeKey]
	if !ok {
		return nil
	}
	d := a.guard.Check(route)
	if d.Allow {
		return nil
	}
	switch d.Target {
	case guard.Login:
		return errs.ErrNoSession
	case guard.Landing:
		u, _ := a.store.User()
		return errs.Validation("already logged in as %s; run `ja logout` first", u.Email)
	}
	return fmt.Errorf("%s is not available (redirected to %s)", route, d.Target)
}

func buildLogger(c config.LogConfig, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(c.Level))
	if err != nil {
		return nil, errs.Validation("log.level: %v", err)
	}
	var enc zapcore.Encoder
	if c.Format == "console" {
		ec := zap.NewDevelopmentEncoderConfig()
		enc = zapcore.NewConsoleEncoder(ec)
	} else {
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// observer prints stage transitions so long pipelines show progress.
func (a *app) observer() workflow.Observer {
	if a.jsonOut {
		return nil
	}
	return func(stage workflow.Stage, st workflow.Status, err error) {
		switch st {
		case workflow.StatusRunning:
			fmt.Fprintf(a.errOut, "%s...\n", stage)
		case workflow.StatusError:
			fmt.Fprintf(a.errOut, "%s failed: %s\n", stage, errs.Message(err))
		}
	}
}
