package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/trustkeeper/internal/ctl"
	"github.com/dmitrijs2005/trustkeeper/internal/flagx"
	"github.com/dmitrijs2005/trustkeeper/internal/server/config"
	"github.com/dmitrijs2005/trustkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/trustkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/trustkeeper/internal/server/truststore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "trustctl:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	db, err := repomanager.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	app := ctl.NewApp(
		truststore.NewSQLStore(db, rm),
		func(ctx context.Context) error { return rm.RunMigrations(ctx, db) },
		passwords.NewBcryptHasher(cfg.BcryptCost),
		os.Stdout,
	)

	return app.Run(ctx, flagx.Positional(os.Args[1:]))
}
