package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"predifi/config"
	"predifi/native/market"
	"predifi/observability/logging"
	"predifi/observability/metrics"
	"predifi/state"
	"predifi/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("predifid", "").Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	logger := logging.SetupWithRotation("predifid", cfg.NetworkName, logging.FileRotation{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", "dataDir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	for _, token := range cfg.Tokens {
		if err := manager.RegisterToken(token); err != nil {
			logger.Error("failed to register token", "token", token, "error", err)
			os.Exit(1)
		}
	}

	engine := market.NewEngine()
	engine.SetState(manager)
	engine.SetAuthorizer(manager)
	engine.SetLogger(logger)
	engine.SetMetrics(metrics.Market())

	treasury, err := cfg.TreasuryAddress()
	if err != nil {
		logger.Error("invalid treasury address", "error", err)
		os.Exit(1)
	}
	if err := engine.Init(treasury, cfg.FeeBps); err != nil {
		logger.Error("failed to initialise engine", "error", err)
		os.Exit(1)
	}
	if cfg.MaxPriceAgeSeconds > 0 {
		if err := engine.SeedOracleConfig(market.OracleConfig{
			MaxPriceAge:           cfg.MaxPriceAgeSeconds,
			MinConfidenceRatioBps: cfg.MinConfidenceRatioBps,
		}); err != nil {
			logger.Error("failed to seed oracle config", "error", err)
			os.Exit(1)
		}
	}

	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Info("metrics listener starting", "address", cfg.MetricsAddress)
			if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
				logger.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	logger.Info("settlement engine ready", "network", cfg.NetworkName, "dataDir", cfg.DataDir)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")
}
