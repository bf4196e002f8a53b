// Command mcarptif solves a batch of mixed capacitated arc routing
// instances and writes one solution file per instance.
//
// Usage:
//
//	mcarptif -input <dir> -output <dir> [-config <path>] [-capacity <n>] [-workers <n>] [-vnd-max-iterations <n>]
//
// Configuration is loaded with the following priority (highest to
// lowest):
//  1. Command-line flags
//  2. Environment variables (MCARPTIF_ prefix)
//  3. Config file (config.yaml in standard locations, or -config)
//  4. Built-in defaults
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"mcarptif/internal/batch"
	"mcarptif/internal/metrics"
	"mcarptif/pkg/config"
	"mcarptif/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		inputDir   = flag.String("input", "", "input directory containing .dat instance files")
		outputDir  = flag.String("output", "", "output directory for solution files")
		configPath = flag.String("config", "", "path to a config file (optional)")
		capacity   = flag.Int64("capacity", 0, "override each instance's vehicle capacity (0 = use the instance's own)")
		workers    = flag.Int("workers", 0, "worker pool size for APSP and local search (0 = runtime default)")
		vndMaxIter = flag.Int("vnd-max-iterations", 0, "maximum VND cycles per instance (0 = package default)")
	)
	flag.Parse()

	var loaderOpts []config.LoaderOption
	if *configPath != "" {
		loaderOpts = append(loaderOpts, config.WithConfigPaths(*configPath))
	}
	loaderOpts = append(loaderOpts, config.WithEnvPrefix("MCARPTIF_"))

	cfg, err := config.NewLoader(loaderOpts...).Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	opts := batch.OptionsFromConfig(cfg)
	if *inputDir != "" {
		opts.InputDir = *inputDir
	}
	if *outputDir != "" {
		opts.OutputDir = *outputDir
	}
	if *capacity > 0 {
		opts.CapacityOverride = *capacity
	}
	if *workers > 0 {
		opts.WorkerPoolSize = *workers
	}
	if *vndMaxIter > 0 {
		opts.VNDMaxIterations = *vndMaxIter
	}

	if opts.InputDir == "" || opts.OutputDir == "" {
		logger.Error("both -input and -output are required (or batch.input_dir/batch.output_dir in config)")
		return 1
	}

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		m := metrics.Init(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
		opts.Metrics = m

		metricsServer = metrics.NewServer(cfg.Metrics.Port)
		errc := make(chan error, 1)
		metricsServer.Start(errc)
		logger.Info("metrics server listening", "port", cfg.Metrics.Port)

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	logger.Info("batch run starting",
		"input_dir", opts.InputDir,
		"output_dir", opts.OutputDir,
		"capacity_override", opts.CapacityOverride,
		"workers", opts.WorkerPoolSize,
	)

	summary, err := batch.Run(opts)
	if err != nil {
		logger.Error("batch run failed", "error", err.Error())
		return 1
	}

	logger.Info("batch run finished",
		"run_id", summary.RunID,
		"files_found", summary.FilesFound,
		"files_succeeded", summary.FilesSucceeded,
		"files_failed", summary.FilesFailed,
	)

	return 0
}
