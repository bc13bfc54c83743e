package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/thebrando/brando/auth"
	"github.com/thebrando/brando/config"
	"github.com/thebrando/brando/obs"
	"github.com/thebrando/brando/storage"
	"github.com/thebrando/brando/user"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const serviceName = "brando"

func main() {
	app := &cli.App{
		Name:   serviceName,
		Usage:  "hotel booking API",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema and seed the admin user",
				Action: migrateCmd,
			},
			{
				Name:  "token",
				Usage: "print a credential for an email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
				},
				Action: tokenCmd,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal(serviceName)
	}
}

func setup(ctx context.Context) (config.Config, *logrus.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	log := obs.NewLogger(cfg.LogLevel, cfg.LogFormat)

	db, err := storage.Open(cfg.DBDriver, cfg.DBDSN, cfg.DBLogLevel)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	if err := migrate(db); err != nil {
		_ = storage.Close(db)
		return config.Config{}, nil, nil, err
	}
	if err := user.NewStore(db).SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		_ = storage.Close(db)
		return config.Config{}, nil, nil, errors.Wrap(err, "seed admin")
	}
	return cfg, log, db, nil
}

func migrateCmd(c *cli.Context) error {
	_, log, db, err := setup(c.Context)
	if err != nil {
		return err
	}
	log.Info("schema migrated")
	return storage.Close(db)
}

func tokenCmd(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	token, exp, err := auth.NewTokens(cfg.TokenSecret, cfg.TokenTTL).Issue(c.String("email"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s\nexpires %s\n", token, exp.Format(time.RFC3339))
	return nil
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, db, err := setup(ctx)
	if err != nil {
		return err
	}
	defer storage.Close(db)

	shutdownTracer, err := obs.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracer(context.Background())

	rc, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	pub, err := newPublisher(cfg, log)
	if err != nil {
		return err
	}
	if pub != nil {
		defer pub.Close()
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	s := newServices(cfg, db, rc, pub, provider, log)
	if cfg.JWKSURL != "" {
		if err := s.tokens.LoadJWKS(cfg.JWKSURL); err != nil {
			return err
		}
		defer s.tokens.Close()
	}
	app := newHTTP(cfg, s, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":     cfg.Addr(),
			"db":       cfg.DBDriver,
			"provider": provider.Name(),
			"events":   cfg.EventsDriver,
		}).Info("listening")
		return app.Listen(cfg.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return app.ShutdownWithContext(shutdownCtx)
	})
	return g.Wait()
}
