package main

import (
	"calinsight/internal/analyzer"
	"calinsight/internal/config"
	"calinsight/internal/google"
	"calinsight/internal/icloud"
	"calinsight/internal/insights"
	"calinsight/internal/models"
	"calinsight/internal/report"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		var authErr *models.AuthError
		if errors.As(err, &authErr) {
			slog.Error("Authentication failed. The token must be valid and carry one of the accepted scopes.",
				"error", err, "scopes", strings.Join(google.AcceptedScopes, " "))
		} else {
			slog.Error("Application failed", "error", err)
		}
		os.Exit(1)
	}
}

// timeNow anchors the query range.
var timeNow = time.Now

// sourceFactory builds the event source for a run.
type sourceFactory func(ctx context.Context, logger *slog.Logger, cfg *config.Config, hours insights.WorkingHours) (analyzer.EventSource, error)

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "calinsight",
		Usage:     "Compute time-usage insights from your Google Calendar.",
		ArgsUsage: "<access_token>",
		Description: "Requires an access token authorized with any of the following scopes:\n\n   " +
			strings.Join(google.AcceptedScopes, "\n   ") +
			"\n\nWorking hours and time zone default to " + config.DefaultStartOfDay + "-" + config.DefaultEndOfDay +
			" " + config.DefaultTimeZone + " and can be changed with WORK_DAY_START, WORK_DAY_END, WORK_TIMEZONE and WORK_DAYS.",
		Writer: stdout,
		Flags:  reportFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one argument: <access_token>")
			}
			token := c.Args().First()
			return run(c, stdout, func(ctx context.Context, logger *slog.Logger, cfg *config.Config, _ insights.WorkingHours) (analyzer.EventSource, error) {
				return google.NewClient(ctx, logger, token,
					google.WithCalendarID(cfg.GoogleCalendarID),
					google.WithEndpoint(cfg.GoogleEndpoint))
			})
		},
		Commands: []*cli.Command{
			caldavCommand(stdout),
		},
	}
}

func reportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "format", Value: string(report.FormatText), Usage: "Output format: text, json or ics."},
		&cli.StringFlag{Name: "range", Value: config.RangeWeek, Usage: "Query range: week or today."},
	}
}

func caldavCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "caldav",
		Usage: "Compute insights from a CalDAV calendar (iCloud by default).",
		Flags: reportFlags(),
		Action: func(c *cli.Context) error {
			return run(c, stdout, func(ctx context.Context, logger *slog.Logger, cfg *config.Config, hours insights.WorkingHours) (analyzer.EventSource, error) {
				return icloud.NewClient(ctx, logger, icloud.Config{
					Endpoint:     cfg.CalDAVEndpoint,
					Username:     cfg.ICloudUsername,
					Password:     cfg.ICloudPassword,
					CalendarName: cfg.ICloudCalendarName,
					Location:     hours.Location,
				})
			})
		},
	}
}

// run performs one insight run against the source built by newSource and writes
// the report to stdout. Nothing is written when any step fails.
func run(c *cli.Context, stdout io.Writer, newSource sourceFactory) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogLevel)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		logger.Warn("Could not set GOMAXPROCS", "error", err)
	}

	format, err := report.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}
	hours, err := cfg.WorkingHours()
	if err != nil {
		return fmt.Errorf("invalid working hours: %w", err)
	}
	rng, err := config.Range(c.String("range"), timeNow(), hours.Location)
	if err != nil {
		return err
	}

	source, err := newSource(c.Context, logger, cfg, hours)
	if err != nil {
		return fmt.Errorf("failed to create event source: %w", err)
	}

	a, err := analyzer.NewAnalyzer(logger, source, hours, rng)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}

	r, err := a.Run(c.Context)
	if err != nil {
		return err
	}
	return report.Write(stdout, format, r)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
