package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/cybernews/internal/config"
	applogging "github.com/TobiSchelling/cybernews/internal/logging"
	"github.com/TobiSchelling/cybernews/internal/metrics"
	"github.com/TobiSchelling/cybernews/internal/pipeline"
	"github.com/TobiSchelling/cybernews/internal/server"
	"github.com/TobiSchelling/cybernews/internal/store"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "cybernews",
	Short:   "Cybersecurity news dashboard",
	Long:    "cybernews collects recent security incident news from RSS/Atom feeds and serves them as a dashboard.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "info"

		// Skip config loading for init and version
		if cmd.Name() != "init" && cmd.Name() != "version" {
			path, err := config.ResolveConfigPath(configPath)
			if err != nil {
				return err
			}
			cfg, err = config.Load(path)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			level = cfg.Logging.Level
		}

		logger, err := applogging.New(level, verbose)
		if err != nil {
			return err
		}
		cmd.SetContext(applogging.WithLogger(cmd.Context(), logger))

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("cybernews", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/cybernews/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds and keywords.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache and configuration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		cache := store.New(cfg.GetCachePath())

		fmt.Println("Configuration:")
		fmt.Printf("  Feeds: %d\n", len(cfg.Sources.Feeds))
		fmt.Printf("  Keywords: %d\n", len(cfg.Keywords))
		fmt.Printf("  Window: %d days\n", cfg.Filter.WindowDays)

		fmt.Println("\nCache:")
		fmt.Printf("  Path: %s\n", cache.Path())

		modTime, ok := cache.ModTime()
		if !ok {
			fmt.Println("  Status: missing")
			return nil
		}

		articles, err := cache.Load()
		if err != nil {
			return fmt.Errorf("loading cache: %w", err)
		}

		state := "up to date"
		if cache.IsStale(now) {
			state = "outdated"
		}
		fmt.Printf("  Status: %s\n", state)
		fmt.Printf("  Modified: %s\n", modTime.Format(time.DateTime))
		fmt.Printf("  Articles: %d\n", len(articles))

		return nil
	},
}

// --- refresh and run commands ---

var (
	dryRun bool
	force  bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Regenerate the cache if it's outdated or missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := pipeline.New(cfg, nil)
		if err != nil {
			return err
		}

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(time.Now())
		} else {
			result = pipe.Refresh(cmd.Context(), time.Now(), force)
		}

		printResult(result)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect articles from all feeds and replace the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := pipeline.New(cfg, nil)
		if err != nil {
			return err
		}

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(time.Now())
		} else {
			result = pipe.Run(cmd.Context(), time.Now())
		}

		printResult(result)
		if result.Collected {
			fmt.Println("\nPipeline complete! Run 'cybernews serve' to view the articles.")
		}
		return nil
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&force, "force", false, "Regenerate the cache even if it's up to date")
	refreshCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

func printResult(result *pipeline.Result) {
	for i, step := range result.Steps {
		fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}

	if !result.Collected || len(result.Articles) == 0 {
		return
	}

	dates := make(map[string]int)
	for _, article := range result.Articles {
		dates[article.Published]++
	}
	days := make([]string, 0, len(dates))
	for day := range dates {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days))) // Newest first

	fmt.Println("\nArticles by day:")
	for _, day := range days {
		fmt.Printf("  %s: %d\n", day, dates[day])
	}
}

// --- serve command ---

var servePort int

type lifecycle struct {
	stop context.CancelFunc
}

func (l lifecycle) Shutdown() {
	l.stop()
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Refresh the cache if needed and start the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := context.WithCancel(cmd.Context())
		defer stop()

		appMetrics := metrics.New()
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		registry.MustRegister(appMetrics)

		pipe, err := pipeline.New(cfg, appMetrics)
		if err != nil {
			return err
		}

		logging.L(ctx).Info("Checking the cache before starting the dashboard...")
		printResult(pipe.Refresh(ctx, time.Now(), false))

		srv, err := server.New(ctx, server.Options{
			Store:     pipe.Store(),
			Refresher: pipe,
			Lifecycle: lifecycle{stop: stop},
			Gatherer:  registry,
		})
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("\nStarting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return srv.Serve(ctx, fmt.Sprintf("127.0.0.1:%d", port))
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}
