package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finspan/finspan-server-go/internal/config"
	"github.com/finspan/finspan-server-go/internal/game"
	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"github.com/finspan/finspan-server-go/internal/metrics"
	"github.com/finspan/finspan-server-go/internal/p2p"
	"github.com/finspan/finspan-server-go/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting Finspan server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cat, err := loadCatalog(cfg.Game.CatalogPath)
	if err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}
	logger.Info("card catalog loaded",
		zap.Int("cards", cat.Len()),
		zap.Int("achievements", len(cat.Achievements())),
	)

	collector, err := metrics.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	opts := []game.Option{
		game.WithObserver(collector),
		game.WithDiveReward(cfg.Game.DiveReward),
	}
	if cfg.Game.Seed != 0 {
		opts = append(opts, game.WithSeed(cfg.Game.Seed))
	}
	if cfg.Game.Achievements {
		opts = append(opts, game.WithAchievements(cat.Achievements()...))
	}
	gameMgr := game.NewManager(logger, cat, opts...)

	grpcServer := server.New(cfg.Server.GRPC, logger)
	collector.TrackManager(gameMgr, grpcServer.HandleNotification)

	gameID, err := gameMgr.Create(cfg.Game.Players)
	if err != nil {
		logger.Fatal("failed to deal match", zap.Error(err))
	}
	logger.Info("match dealt", zap.String("game_id", gameID), zap.Strings("players", cfg.Game.Players))

	network := p2p.NewNetwork(
		p2p.WithPeerID(cfg.P2P.PeerID),
		p2p.WithLogger(logger),
		p2p.WithDialTimeout(cfg.P2P.DialTimeout),
		p2p.WithPeerCount(collector.SetPeers),
	)
	session := p2p.NewSession(p2p.ManagedMatch{Manager: gameMgr, GameID: gameID}, network, cfg.P2P.Host, logger)
	session.OnChat(func(m p2p.ChatMessage) {
		logger.Info("chat", zap.String("from", m.From), zap.String("text", m.Text))
	})

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}
	go func() {
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.WebSocket.Path, network)
	wsServer := &http.Server{
		Addr:              cfg.Server.WebSocket.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting WebSocket server",
			zap.String("address", cfg.Server.WebSocket.Address),
			zap.String("path", cfg.Server.WebSocket.Path),
		)
		if wsErr := wsServer.ListenAndServe(); wsErr != nil && wsErr != http.ErrServerClosed {
			logger.Error("WebSocket server error", zap.Error(wsErr))
		}
	}()

	if cfg.Server.Metrics.Enabled {
		go func() {
			if mErr := metrics.Serve(ctx, cfg.Server.Metrics.Address, cfg.Server.Metrics.Path, prometheus.DefaultGatherer, logger); mErr != nil {
				logger.Error("metrics server error", zap.Error(mErr))
			}
		}()
	}

	for _, url := range cfg.P2P.Peers {
		peerID, err := network.Connect(ctx, url)
		if err != nil {
			logger.Warn("failed to reach peer", zap.String("url", url), zap.Error(err))
			continue
		}
		logger.Info("connected to peer", zap.String("url", url), zap.String("remote_peer", peerID))
	}

	logger.Info("Finspan server initialized",
		zap.String("version", version),
		zap.String("peer_id", network.ID()),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
		zap.Bool("host", cfg.P2P.Host),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	network.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = wsServer.Shutdown(shutdownCtx)
	grpcServer.Stop()
	gameMgr.Remove(gameID)

	logger.Info("Finspan server stopped")
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
