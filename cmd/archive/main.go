// Command archive moves every expired listing that is not archived yet to
// ARCHIVED, whatever its current state. Meant to be run from cron when the
// server's built-in archiver is disabled.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/campustroc/backend/internal/config"
	"github.com/campustroc/backend/internal/database"
	"github.com/campustroc/backend/internal/logging"
	"github.com/campustroc/backend/internal/search"
	"github.com/campustroc/backend/internal/services"
)

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if err := run(cfg, opts, os.Stdout); err != nil {
		slog.Error("archive failed", "error", err)
		os.Exit(1)
	}
}

func parseOptions(args []string) (services.ArchiveOptions, error) {
	fs := flag.NewFlagSet("archive", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "report expired listings without archiving them")
	limit := fs.Int("limit", 0, "archive at most N listings (0 = no limit)")
	if err := fs.Parse(args); err != nil {
		return services.ArchiveOptions{}, err
	}
	if *limit < 0 {
		return services.ArchiveOptions{}, fmt.Errorf("--limit must be >= 0, got %d", *limit)
	}
	return services.ArchiveOptions{DryRun: *dryRun, Limit: *limit}, nil
}

// run owns every resource it opens so they are released before main exits.
func run(cfg *config.Config, opts services.ArchiveOptions, out io.Writer) error {
	if err := database.Connect(cfg); err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}()

	var meili *search.Meili
	if cfg.MeiliURL != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliAPIKey)
	}
	index := search.NewService(meili)
	defer index.Close()

	result, err := services.NewArchiveService(database.DB, index).ArchiveExpired(context.Background(), opts)
	if err != nil {
		return err
	}
	report(out, result, opts.DryRun)
	return nil
}

func report(out io.Writer, result *services.ArchiveResult, dryRun bool) {
	if dryRun {
		fmt.Fprintf(out, "matched: %d  archived: 0 (dry run)\n", result.Matched)
		for _, id := range result.IDs {
			fmt.Fprintln(out, id)
		}
		return
	}
	fmt.Fprintf(out, "matched: %d  archived: %d\n", result.Matched, result.Archived)
}
