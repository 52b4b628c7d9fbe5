package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/kidpoints/internal/backup"
	"github.com/dukerupert/kidpoints/internal/push"
	"github.com/dukerupert/kidpoints/internal/reset"
	"github.com/dukerupert/kidpoints/internal/server"
	ws "github.com/dukerupert/kidpoints/internal/websocket"
)

type ServeCmd struct {
	Addr          string        `help:"Listen address." default:":8080" env:"KIDPOINTS_ADDR"`
	Origins       []string      `help:"Allowed websocket origin patterns. Empty accepts any origin." env:"KIDPOINTS_ORIGINS"`
	AutoReset     bool          `name:"auto-reset" help:"Reopen daily and weekly tasks when the day or week rolls over." env:"KIDPOINTS_AUTO_RESET"`
	ResetInterval time.Duration `name:"reset-interval" help:"How often to check for a rollover." default:"1m" env:"KIDPOINTS_RESET_INTERVAL"`
	Push          bool          `help:"Serve Web Push registration and send notifications." default:"true" negatable:"" env:"KIDPOINTS_PUSH"`
	PushSubject   string        `name:"push-subject" help:"Contact URI sent to push services." default:"mailto:admin@kidpoints.local" env:"KIDPOINTS_PUSH_SUBJECT"`
}

func (c *ServeCmd) pushDeps(app *Context) (server.Push, error) {
	if !c.Push {
		return server.Push{}, nil
	}
	kv := app.Household.KV()
	keys, err := push.LoadOrCreateKeys(kv)
	if err != nil {
		return server.Push{}, err
	}
	subs := push.NewSubscriptions(kv, app.Logger.With("component", "push"))
	if err := subs.Load(); err != nil {
		return server.Push{}, err
	}
	return server.Push{Service: push.NewService(keys, c.PushSubject), Subscriptions: subs}, nil
}

func (c *ServeCmd) Run(app *Context) error {
	logger := app.Logger
	hh := app.Household

	pushDeps, err := c.pushDeps(app)
	if err != nil {
		return err
	}
	reload := func() error {
		if err := hh.Reload(); err != nil {
			return err
		}
		if pushDeps.Subscriptions != nil {
			return pushDeps.Subscriptions.Load()
		}
		return nil
	}

	hub := ws.NewHub(logger.With("component", "websocket"))
	backupMgr := backup.NewManager(app.Backup, hh.KV(), reload, func(st backup.Status) {
		hub.Notify("backup", string(st.State), st.LastKey)
	}, logger.With("component", "backup"))
	srv := server.New(hh, hub, backupMgr, pushDeps, c.Origins, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backupMgr.Start(ctx)
	defer backupMgr.Stop()

	srv.RateLimiter().StartCleanup(ctx, 5*time.Minute)

	if c.AutoReset {
		sched := reset.NewScheduler(hh, c.ResetInterval, logger.With("component", "reset"))
		sched.Start(ctx)
		defer sched.Stop()
	}

	httpServer := &http.Server{
		Addr:         c.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", c.Addr, "backups", backupMgr.Enabled(), "auto_reset", c.AutoReset)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
