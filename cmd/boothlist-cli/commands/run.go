package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"boothlist-backend/lib/cliutil"
	"boothlist-backend/lib/configutil"
	"boothlist-backend/lib/restyutil"
	"boothlist-backend/lib/scrapers/booth"
	"boothlist-backend/services/catalog"
	"boothlist-backend/services/catalog/classify"
	"boothlist-backend/services/catalog/export"
	"boothlist-backend/services/catalog/input"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	InputDir         string  `json:"input_dir"`
	OutputDir        string  `json:"output_dir"`
	CachePath        string  `json:"cache_path"`
	DictionaryPath   string  `json:"dictionary_path"`
	RateLimitSeconds float64 `json:"rate_limit_seconds"`
	MaxRetries       int     `json:"max_retries"`
	ErrorTTLHours    int     `json:"error_ttl_hours"`
}

var forceRefresh *bool

func init() {
	forceRefresh = runCmd.Flags().Bool("force-refresh", false, "Refetch every item even when cached.")
	rootCmd.AddCommand(runCmd)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

var runCmd = &cobra.Command{
	Use:   "run [--force-refresh]",
	Short: "Runs the full pipeline: load input, scrape, classify, export.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := configutil.ReadConfig[Config]("boothlist.json5")
		if err != nil && !os.IsNotExist(err) {
			cliutil.Fatal("failed to read config", err)
		}
		if cfg.InputDir == "" {
			cfg.InputDir = "input"
		}
		if cfg.OutputDir == "" {
			cfg.OutputDir = "output"
		}
		if cfg.CachePath == "" {
			cfg.CachePath = "cache.json"
		}

		rawItems, err := input.LoadDirectory(ctx, cfg.InputDir)
		if err != nil {
			cliutil.Fatal("failed to load input", err)
		}
		if len(rawItems) == 0 {
			slog.Warn("no input records found", "dir", cfg.InputDir)
			return
		}

		cache, err := booth.OpenFileStore(cfg.CachePath)
		if err != nil {
			cliutil.Fatal("failed to open cache", err)
		}

		if *verbose {
			if dump, err := restyutil.NewFilesystemOutput(".dev/resty/booth"); err != nil {
				slog.Warn("http dump disabled", "err", err)
			} else {
				booth.SetRestyInstrumentOutput(dump)
			}
		}
		client, err := booth.NewClient(booth.ClientOptions{
			RateLimit:  time.Duration(cfg.RateLimitSeconds * float64(time.Second)),
			MaxRetries: cfg.MaxRetries,
			ErrorTTL:   time.Duration(cfg.ErrorTTLHours) * time.Hour,
			Cache:      cache,
		})
		if err != nil {
			cliutil.Fatal("failed to initialize client", err)
		}

		dict, err := classify.LoadDictionary(cfg.DictionaryPath)
		if err != nil {
			cliutil.Fatal("failed to load classification dictionary", err)
		}

		svc := catalog.NewService(client, classify.NewClassifier(dict))

		t1 := time.Now()
		items, summary, err := svc.Run(ctx, rawItems, *forceRefresh)
		if err != nil {
			slog.Warn("pipeline interrupted, exporting completed items", "err", err)
		}
		slog.Info("pipeline time", "seconds", time.Since(t1).Seconds())

		err = export.WriteCatalog(ctx, items, filepath.Join(cfg.OutputDir, "catalog.yml"))
		if err != nil {
			cliutil.Fatal("failed to export catalog", err)
		}
		err = export.WriteMetrics(ctx, items, filepath.Join(cfg.OutputDir, "metrics.yml"))
		if err != nil {
			cliutil.Fatal("failed to export metrics", err)
		}
		err = export.WriteDashboard(ctx, filepath.Join(cfg.OutputDir, "index.html"))
		if err != nil {
			cliutil.Fatal("failed to export dashboard", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"input", "skipped", "fetched", "cached", "errors", "classified"})
		t.AppendRow(table.Row{summary.Input, summary.Skipped, summary.Fetched, summary.FromCache, summary.Errors, summary.Classified})
		t.Render()
	},
}
