package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/briangreenhill/ranplan/internal/cli"
	"github.com/briangreenhill/ranplan/internal/config"
	"github.com/briangreenhill/ranplan/internal/course"
	"github.com/briangreenhill/ranplan/internal/history"
	"github.com/briangreenhill/ranplan/internal/plan"
)

func main() {
	w := os.Stdout
	cfg := config.Load()
	logger := cfg.NewLogger(os.Stderr)

	db, err := history.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("Error opening database", slog.String("path", cfg.DatabasePath), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	historyService := history.NewService(db, logger)
	calculator := plan.NewCalculator(course.Tahoe(), plan.DefaultNutrition())

	if err := run(context.Background(), w, os.Args[1:], cfg, logger, calculator, historyService); err != nil {
		logger.Error("Error running ranplan", slog.Any("error", err))
		db.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, args []string, cfg *config.Config, logger *slog.Logger, calculator *plan.Calculator, historyService *history.Service) error {
	c := cli.NewCLI(w, cfg, logger, calculator, historyService)

	if err := c.Run(ctx, args); err != nil {
		return err
	}

	return nil
}
