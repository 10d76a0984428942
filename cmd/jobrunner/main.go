package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobrunner/internal/app"
	"github.com/ternarybob/jobrunner/internal/broadcast"
	"github.com/ternarybob/jobrunner/internal/common"
	"github.com/ternarybob/jobrunner/internal/mcpstats"
)

// configPaths is a custom flag type allowing multiple -config flags,
// following cmd/quaero/main.go's pattern.
type configPaths []string

func (c *configPaths) String() string { return fmt.Sprintf("%v", *c) }
func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	dashPort    = flag.Int("dashboard-port", 8089, "Dashboard WebSocket/HTTP port")
	mcpMode     = flag.Bool("mcp", false, "Run the scheduler_stats MCP server over stdio instead of the scheduler")
	showVersion = flag.Bool("version", false, "Print version information")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("jobrunner version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (required order, matching cmd/quaero/main.go):
	// 1. load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. initialize logger
	// 3. print banner
	if len(configFiles) == 0 {
		if _, err := os.Stat("jobrunner.toml"); err == nil {
			configFiles = append(configFiles, "jobrunner.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}

	logger := common.SetupLogger(config)
	common.PrintBanner(config, logger)

	if *mcpMode {
		runMCPServer(config, logger)
		return
	}

	runScheduler(config, logger)
}

func runMCPServer(config *common.Config, logger arbor.ILogger) {
	application, err := app.New(config, logger, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application for mcp mode")
	}
	defer application.Close()

	srv := mcpstats.NewServer("jobrunner", common.GetVersion(), application)
	logger.Info().Msg("serving scheduler_stats over stdio")
	if err := mcpstats.Serve(srv); err != nil {
		logger.Fatal().Err(err).Msg("mcp server failed")
	}
}

func runScheduler(config *common.Config, logger arbor.ILogger) {
	events := broadcast.New(logger)

	application, err := app.New(config, logger, events)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer func() {
		common.PrintShutdownBanner(logger)
		application.Close()
		common.Stop()
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/events", events.HandleWebSocket)
	dashboardAddr := fmt.Sprintf(":%d", *dashPort)
	dashboardServer := &http.Server{Addr: dashboardAddr, Handler: mux}
	common.SafeGo(logger, "dashboardServer", func() {
		if err := dashboardServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn().Err(err).Msg("dashboard server stopped")
		}
	})
	logger.Info().Str("addr", dashboardAddr).Msg("dashboard websocket listening on /events")

	c := cron.New(cron.WithSeconds())
	runDone := make(chan struct{})
	stopRequested := make(chan struct{})

	if config.Scheduler.CronExpr != "" {
		_, err := c.AddFunc(config.Scheduler.CronExpr, func() {
			select {
			case <-stopRequested:
				return
			default:
			}
			application.RunOnce()
		})
		if err != nil {
			logger.Fatal().Err(err).Str("cron", config.Scheduler.CronExpr).Msg("invalid cron expression")
		}
		c.Start()
		logger.Info().Str("cron", config.Scheduler.CronExpr).Msg("frame loop driven by cron schedule")
	} else {
		common.SafeGo(logger, "frameLoop", func() {
			defer close(runDone)
			application.Run()
		})
		logger.Info().Msg("frame loop running continuously until max_frames or interrupt")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info().Msg("interrupt signal received")
	case <-runDone:
		logger.Info().Msg("frame loop exited (max_frames reached)")
	}

	close(stopRequested)
	c.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dashboardServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("dashboard server shutdown failed")
	}
}
