// File: cmd/docchat/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"

	"github.com/iyunix/go-docchat/internal/app"
	"github.com/iyunix/go-docchat/internal/cli"
	"github.com/iyunix/go-docchat/internal/config"
	"github.com/iyunix/go-docchat/internal/database"
	"github.com/iyunix/go-docchat/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, open, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "docchat: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// open wires the session against DB_PATH. Logs go to stderr so they never
// mix with command output.
func open(ctx context.Context, verbose bool) (*cli.Env, func(), error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := services.NewProductionLoggerWithWriter("docchat-cli",
		zerolog.ConsoleWriter{Out: os.Stderr}, level)

	db, err := database.OpenAndMigrate(cfg.DBPath, logger.Discard)
	if err != nil {
		return nil, nil, err
	}
	sess, cleanup, err := app.NewSession(cfg, log, db)
	if err != nil {
		_ = database.Close(db)
		return nil, nil, err
	}

	release := func() {
		cleanup()
		if err := database.Close(db); err != nil {
			log.Warn("[CLI] database close failed", "error", err)
		}
	}
	return &cli.Env{Session: sess}, release, nil
}
