package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/meltforce/ftracker/internal/config"
	"github.com/meltforce/ftracker/internal/ingest/sensor"
	"github.com/meltforce/ftracker/internal/journal"
	"github.com/meltforce/ftracker/internal/training"
	"github.com/meltforce/ftracker/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	path := flag.String("path", "", "packet file or directory of packet files")
	sample := flag.Bool("sample", false, "compute the built-in reference packets")
	serverURL := flag.String("server", "", "ftracker server URL to upload accepted packets to (optional)")
	apiKey := flag.String("api-key", os.Getenv("FTRACKER_AUTH_API_KEY"), "API key for -server (default $FTRACKER_AUTH_API_KEY)")
	configPath := flag.String("config", "", "config file for journal.dir and auth.api_key (optional)")
	journalDir := flag.String("journal", "", "journal directory (default journal.dir, $FTRACKER_JOURNAL_DIR or ~/.ftracker)")
	force := flag.Bool("force", false, "reprocess files even if unchanged since the last run")
	verbose := flag.Bool("v", false, "verbose logging")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("ftracker-calc", Version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	// Summary lines go to stdout; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *path == "" && !*sample {
		fmt.Fprintf(os.Stderr, "Usage: ftracker-calc (-path <file|dir> | -sample) [-server <URL>] [-force]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open journal: flag, then config file, then env, then ~/.ftracker
	dir := *journalDir
	if *configPath != "" {
		cfg, err := config.Read(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		if dir == "" {
			dir = cfg.Journal.Dir
		}
		if *apiKey == "" {
			*apiKey = cfg.Auth.APIKey
		}
	}
	if dir == "" {
		dir = os.Getenv("FTRACKER_JOURNAL_DIR")
	}
	if dir == "" {
		dir = config.DefaultJournalDir()
	}
	j, err := journal.Open(dir)
	if err != nil {
		log.Error("failed to open journal", "error", err)
		os.Exit(1)
	}
	defer j.Close()

	var client *upload.Client
	if *serverURL != "" {
		client = upload.NewClient(*serverURL, *apiKey)
		checkCatalog(ctx, client, log)
	}

	runner := upload.New(client, j, os.Stdout, *force, log)

	if *sample {
		if _, err := runner.RunPackets(ctx, sensor.SamplePackets(), "sample"); err != nil {
			log.Error("sample failed", "error", err)
			os.Exit(1)
		}
	}

	if *path != "" {
		if _, err := runner.Run(ctx, *path); err != nil {
			log.Error("run failed", "error", err)
			printStats(runner.Stats())
			os.Exit(1)
		}
	}

	printStats(runner.Stats())
}

// checkCatalog warns when the server does not accept every local activity code.
func checkCatalog(ctx context.Context, client *upload.Client, log *slog.Logger) {
	specs, err := client.FetchCatalog(ctx)
	if err != nil {
		log.Warn("could not fetch server catalog", "error", err)
		return
	}
	remote := make(map[training.Code]bool, len(specs))
	for _, s := range specs {
		remote[s.Code] = true
	}
	for _, c := range training.Codes {
		if !remote[c] {
			log.Warn("server does not accept activity", "code", c)
		}
	}
}

func printStats(stats *upload.Stats) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "=== Summary ===")
	fmt.Fprintf(os.Stderr, "  Files total:      %d\n", stats.FilesTotal)
	fmt.Fprintf(os.Stderr, "  Files processed:  %d\n", stats.FilesProcessed)
	fmt.Fprintf(os.Stderr, "  Files skipped:    %d (unchanged)\n", stats.FilesSkipped)
	fmt.Fprintf(os.Stderr, "  Files errored:    %d\n", stats.FilesErrored)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "  Packets:          %d\n", stats.PacketsTotal)
	fmt.Fprintf(os.Stderr, "  Reports:          %d\n", stats.ReportsComputed)
	fmt.Fprintf(os.Stderr, "  Rejected:         %d\n", stats.PacketsRejected)
	fmt.Fprintf(os.Stderr, "  Journaled:        %d\n", stats.ReportsJournaled)
	fmt.Fprintf(os.Stderr, "  Uploaded:         %d\n", stats.ReportsUploaded)
}
