package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yungbote/graphloader/internal/app"
	"github.com/yungbote/graphloader/internal/data/runlog"
	"github.com/yungbote/graphloader/internal/domain/kg"
	"github.com/yungbote/graphloader/internal/modules/ingestion"
	"github.com/yungbote/graphloader/internal/modules/ingestion/source"
	"github.com/yungbote/graphloader/internal/platform/shutdown"
)

const defaultStatusLog = "import_errors.txt"

func main() {
	var (
		dir        string
		clearGraph bool
		dryRun     bool
		statusLog  string
	)
	flag.StringVar(&dir, "dir", ".", "directory of extracted triple JSON files")
	flag.BoolVar(&clearGraph, "clear", false, "delete every node and edge before importing")
	flag.BoolVar(&dryRun, "dry-run", false, "ingest into an in-memory graph instead of Neo4j")
	flag.StringVar(&statusLog, "status-log", "", "per-file status log (default <dir>/"+defaultStatusLog+")")
	flag.Parse()

	if statusLog == "" {
		statusLog = filepath.Join(dir, defaultStatusLog)
	}
	os.Exit(run(dir, clearGraph, dryRun, statusLog))
}

func run(dir string, clearGraph, dryRun bool, statusLog string) int {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	application, err := app.New(ctx, app.Options{DryRun: dryRun, StatusLogPath: statusLog})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		if errors.Is(err, kg.ErrStoreUnavailable) {
			return 2
		}
		return 1
	}
	defer application.Close(context.Background())
	log := application.Log
	application.Metrics.StartServer(ctx, log, application.Cfg.MetricsAddr)

	if application.TextLog != nil {
		if err := application.TextLog.Reset(); err != nil {
			log.Warn("Resetting status log failed", "error", err)
		}
	}

	files, err := source.ScanDir(dir, statusLog)
	if err != nil {
		log.Error("Scanning source directory failed", "dir", dir, "error", err)
		return 1
	}
	fmt.Printf("Found %d JSON files to import.\n", len(files))
	if len(files) == 0 {
		return 0
	}

	if clearGraph {
		if err := application.Ingestion.Clear(ctx); err != nil {
			log.Error("Clearing graph failed", "error", err)
			return 1
		}
		fmt.Println("Graph cleared.")
	}

	summary, err := application.Ingestion.IngestFiles(ctx, files)
	printSummary(summary)
	if err != nil {
		log.Error("Import aborted", "run_id", summary.RunID.String(), "error", err)
		if errors.Is(err, kg.ErrStoreUnavailable) {
			return 2
		}
		return 1
	}

	st, err := application.Ingestion.Statistics(ctx)
	if err != nil {
		// Ingestion already completed; statistics are informational.
		log.Warn("Statistics unavailable", "error", err)
		return 0
	}
	fmt.Println("\n=== Graph statistics ===")
	fmt.Print(ingestion.FormatStats(st))
	fmt.Println("========================")
	return 0
}

func printSummary(summary ingestion.RunSummary) {
	for _, out := range summary.Sources {
		fmt.Printf("\n%s\n", out.Tag)
		switch {
		case out.Err != nil && out.Result.Total() == 0:
			fmt.Printf("  failed: %v\n", out.Err)
		case out.Status == runlog.StatusEmpty:
			fmt.Printf("  no valid records (invalid %d), skipped\n", out.Result.Invalid)
		default:
			fmt.Printf("  success %d, failed %d, invalid %d\n", out.Result.Success, out.Result.Errors, out.Result.Invalid)
		}
	}
	t := summary.Totals
	fmt.Printf("\nRun %s: success %d, failed %d, invalid %d\n", summary.RunID, t.Success, t.Errors, t.Invalid)
}
