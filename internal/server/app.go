// Package server wires the postbox components together: storage bootstrap,
// services, the presence table, the datagram dispatcher, the UDP listener and
// the optional admin HTTP server.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/postbox/internal/dbx"
	"github.com/dmitrijs2005/postbox/internal/filex"
	"github.com/dmitrijs2005/postbox/internal/logging"
	"github.com/dmitrijs2005/postbox/internal/server/config"
	"github.com/dmitrijs2005/postbox/internal/server/dispatcher"
	"github.com/dmitrijs2005/postbox/internal/server/metrics"
	"github.com/dmitrijs2005/postbox/internal/server/presence"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/postbox/internal/server/services"
	"github.com/dmitrijs2005/postbox/internal/server/udp"
	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	presence *presence.Table
	udp      *udp.Server
	admin    *metrics.AdminServer
}

// NewApp opens storage, applies migrations and builds every component. Logs
// go to stdout.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel, logOut)
	if err != nil {
		return nil, err
	}

	db, rm, err := openStorage(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	reg := prom.NewRegistry()
	m, err := metrics.NewPrometheus(reg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("metrics init error: %w", err)
	}

	pt := presence.New()
	d := dispatcher.New(
		services.NewCredentialService(db, rm, logger),
		services.NewMailboxService(db, rm, logger),
		pt,
		m,
		logger,
	)

	app := &App{
		config:   c,
		logger:   logger,
		db:       db,
		presence: pt,
		udp: udp.NewServer(c.ListenAddr, d, logger,
			udp.WithBufferSize(c.ReceiveBufferSize),
			udp.WithMaxInFlight(int64(c.MaxInFlight)),
			udp.WithHandlerTimeout(c.HandlerTimeout),
			udp.WithReceivedCounter(m.Datagrams),
		),
	}
	if c.MetricsAddr != "" {
		app.admin = metrics.NewAdminServer(c.MetricsAddr, reg, pt.Len, logger)
	}

	return app, nil
}

func openStorage(ctx context.Context, c *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	rm, err := repomanager.New(c.StorageDriver)
	if err != nil {
		return nil, nil, err
	}

	if c.StorageDriver == dbx.DriverSQLite && c.DatabaseDSN == "" {
		if _, err := filex.EnsureDir(c.DataDir); err != nil {
			return nil, nil, err
		}
	}

	db, err := dbx.Open(ctx, c.StorageDriver, c.DSN())
	if err != nil {
		return nil, nil, err
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return db, rm, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// UDPAddr blocks until the listener is bound and returns its address.
func (app *App) UDPAddr(ctx context.Context) (netip.AddrPort, error) {
	select {
	case <-app.udp.Ready():
		return app.udp.LocalAddr(), nil
	case <-ctx.Done():
		return netip.AddrPort{}, ctx.Err()
	}
}

// Run serves until ctx is cancelled or a signal arrives. A bind failure of
// either listener stops the other and is returned.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	stopSignals := app.initSignalHandler(cancelFunc)
	defer stopSignals()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.udp.Run(gctx) })
	if app.admin != nil {
		g.Go(func() error { return app.admin.Run(gctx) })
	}

	err := g.Wait()

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Warn(ctx, "closing storage", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
