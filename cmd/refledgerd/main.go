// Command refledgerd runs the referral ledger daemon: it restores the
// ledger from its database (or initializes a fresh one), connects to
// the custody service, and serves the HTTP API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/refnetorg/refledger-go/config"
	"github.com/refnetorg/refledger-go/ledger"
	"github.com/refnetorg/refledger-go/server"
	"github.com/refnetorg/refledger-go/storage"
	"github.com/refnetorg/refledger-go/transfer"
)

type options struct {
	Config   string `long:"config" env:"REFLEDGER_CONFIG" description:"path to the configuration file"`
	Debug    bool   `long:"debug" env:"REFLEDGER_DEBUG" description:"verbose logging"`
	Passcode string `long:"passcode" env:"REFLEDGER_PASSCODE" description:"admin passcode, required on first initialization only"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	if opts.Debug {
		logger.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := run(opts, logger); err != nil {
		logger.WithError(err).Fatal("refledgerd failed")
	}
}

func run(opts options, logger *logrus.Logger) error {
	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return pkgerrors.Wrap(err, "validate config")
	}

	admin, err := ledger.ParseAddress(cfg.AdminAddress)
	if err != nil {
		return pkgerrors.Wrap(err, "parse admin address")
	}

	store, err := storage.Open(filepath.Join(cfg.DataDir, "ledger.db"))
	if err != nil {
		return pkgerrors.Wrap(err, "open ledger database")
	}
	defer store.Close()

	svc := transfer.NewRPCClient(transfer.Config{
		URL:      cfg.TransferURL,
		User:     cfg.TransferUser,
		Password: cfg.TransferPassword,
	})
	logger.Debugf("custody service: %s", cfg.TransferURL)

	recorder := ledger.MultiRecorder{
		&server.LogRecorder{Logger: logger},
		store.Journal(func(err error) {
			logger.WithError(err).Error("event journal write failed")
		}),
	}

	led, err := openLedger(store, svc, recorder, admin, cfg, opts.Passcode, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(led, store, logger).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signals:
		logger.Infof("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	case err := <-errCh:
		return pkgerrors.Wrap(err, "http server")
	}
}

// loadConfig reads the config file when one is given; a missing file
// at the default location falls back to defaults.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return cfg, pkgerrors.Wrapf(err, "load config %s", path)
	}
	return cfg, nil
}

// openLedger restores the ledger from the stored snapshot, or
// initializes a fresh one when the database is empty. Initialization
// requires the admin passcode; restarts do not, since only the
// commitment is persisted.
func openLedger(store *storage.BoltStore, svc ledger.ValueTransfer, recorder ledger.Recorder,
	admin ledger.Address, cfg config.Config, passcode string, logger *logrus.Logger) (*ledger.Ledger, error) {

	snap, err := store.LoadSnapshot()
	switch {
	case err == nil:
		led, err := ledger.FromSnapshot(snap, svc, recorder)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "restore ledger")
		}
		logger.WithFields(logrus.Fields{
			"accounts": len(snap.Accounts),
			"joins":    snap.Joins,
		}).Info("ledger restored")
		return led, nil

	case pkgerrors.Is(err, storage.ErrNoSnapshot):
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		led, err := ledger.New(ctx, ledger.Options{
			Transfer:    svc,
			NativeAsset: ledger.Asset(cfg.NativeAsset),
			Admin:       admin,
			Passcode:    passcode,
			Recorder:    recorder,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(err, "initialize ledger")
		}
		if err := store.SaveSnapshot(led.Snapshot()); err != nil {
			return nil, pkgerrors.Wrap(err, "persist initial snapshot")
		}
		logger.WithField("admin", admin.String()).Info("ledger initialized")
		return led, nil

	default:
		return nil, pkgerrors.Wrap(err, "load snapshot")
	}
}
