// Package cli dispatches the ranplan subcommands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/briangreenhill/ranplan/internal/config"
	"github.com/briangreenhill/ranplan/internal/course"
	"github.com/briangreenhill/ranplan/internal/dashboard"
	"github.com/briangreenhill/ranplan/internal/history"
	"github.com/briangreenhill/ranplan/internal/plan"
	"github.com/briangreenhill/ranplan/internal/track"
	"github.com/briangreenhill/ranplan/internal/tracker"
)

type CLI struct {
	writer     io.Writer
	cfg        *config.Config
	calculator *plan.Calculator
	history    *history.Service
	logger     *slog.Logger
}

func NewCLI(w io.Writer, cfg *config.Config, logger *slog.Logger, calculator *plan.Calculator, historyService *history.Service) *CLI {
	return &CLI{
		writer:     w,
		cfg:        cfg,
		calculator: calculator,
		history:    historyService,
		logger:     logger,
	}
}

func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.Usage()
		return nil
	}

	switch args[0] {
	case "plan":
		return c.Plan(ctx, args[1:])
	case "track":
		return c.Track(args[1:])
	case "history":
		return c.History(ctx, args[1:])
	case "serve":
		return c.Serve(ctx)
	default:
		c.Usage()
	}
	return nil
}

func (c *CLI) Usage() {
	fmt.Fprintf(c.writer, "Usage: ranplan [command] [flags]\n--help show this message\n\n"+
		"\tplan [--target 85h] [--current 1] [--start RFC3339] [--transition 15] [--json]\n"+
		"\ttrack --gpx FILE [--unit ft|m]\n"+
		"\thistory add --segment N --hours H [--rank R]\n"+
		"\thistory list\n"+
		"\thistory import --csv FILE\n"+
		"\tserve\n")
}

func (c *CLI) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.writer)
	fs.Usage = c.Usage
	return fs
}

// Serve runs the dashboard API and the tracker poller until interrupted.
func (c *CLI) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	catalog := c.calculator.Catalog()

	var measured *track.Track
	if c.cfg.GPXPath != "" {
		unit, err := track.ParseElevationUnit(c.cfg.GPXElevationUnit)
		if err != nil {
			return err
		}
		measured, err = track.ReadGPXFile(c.cfg.GPXPath, unit)
		switch {
		case errors.Is(err, track.ErrNoTrack):
			c.logger.Warn("Course track has no points, using synthetic profile", slog.String("gpx_file", c.cfg.GPXPath))
		case err != nil:
			return err
		default:
			c.logger.Info("Loaded course track",
				slog.String("gpx_file", c.cfg.GPXPath),
				slog.Int("points", len(measured.Points)),
				slog.Float64("distance_km", measured.Stats.TotalDistanceKm))
		}
	}

	target, err := course.ParseTarget(c.cfg.TargetFinish)
	if err != nil {
		return err
	}
	start, err := time.Parse(time.RFC3339, c.cfg.RaceStart)
	if err != nil {
		return fmt.Errorf("invalid race start %q: %w", c.cfg.RaceStart, err)
	}

	localizer := tracker.NewLocalizer(catalog, c.logger)
	poller := tracker.NewPoller(
		tracker.NewClient(c.cfg.TrackerStatusURL, c.cfg.TrackerFeedURL, c.cfg.TrackerTimeout),
		localizer,
		track.NewFeedParser(c.logger, c.cfg.RunnerLabel),
		c.cfg.PollInterval,
		c.logger,
	)

	api := dashboard.NewAPI(dashboard.Deps{
		Logger:     c.logger,
		Calculator: c.calculator,
		History:    c.history,
		Localizer:  localizer,
		Route:      track.NewRoute(measured, catalog, c.cfg.ProfilePointsPerKm),
		Defaults: dashboard.PlanDefaults{
			RaceStart:         start,
			Target:            target,
			TransitionMinutes: c.cfg.TransitionMinutes,
		},
		AllowedOrigins: c.cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         ":" + c.cfg.Port,
		Handler:      api,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		c.logger.Info("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			c.logger.Error("Error shutting down server", slog.Any("error", err))
		}
	}()

	c.logger.Info("Starting server", slog.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		c.logger.Error("Error starting server", slog.Any("error", err))
		cancel()
		wg.Wait()
		return err
	}

	wg.Wait()
	return nil
}
