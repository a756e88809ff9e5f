// Package api implements app.Runner for the wallet API server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/gamepub/chain-middleware/pkg/app/http"
	"github.com/gamepub/chain-middleware/pkg/assets"
	"github.com/gamepub/chain-middleware/pkg/broadcast"
	"github.com/gamepub/chain-middleware/pkg/chain"
	"github.com/gamepub/chain-middleware/pkg/config"
	"github.com/gamepub/chain-middleware/pkg/convert"
	"github.com/gamepub/chain-middleware/pkg/fees"
	"github.com/gamepub/chain-middleware/pkg/gameserver"
	"github.com/gamepub/chain-middleware/pkg/ledger"
	"github.com/gamepub/chain-middleware/pkg/lock"
	"github.com/gamepub/chain-middleware/pkg/mint"
	"github.com/gamepub/chain-middleware/pkg/pgutil"
	"github.com/gamepub/chain-middleware/pkg/sequence"
	"github.com/gamepub/chain-middleware/pkg/walletstore"
)

const defaultRequestTimeout = 60

// Server holds cfg to init the api server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes new api server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("api server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting wallet API server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("chain_id", cfg.Chain.ChainID),
	)

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	store := walletstore.NewStore(db)
	chainClient := chain.NewClient(&cfg.Chain, logger)

	coordinator := sequence.NewCoordinator(store, chainClient, logger)

	stopReconcile := s.startReconciler(ctx, store, chainClient, logger)
	defer stopReconcile()

	table, err := fees.NewSplitTable(cfg.FeeSplit)
	if err != nil {
		return fmt.Errorf("fee split config: %w", err)
	}
	assembler := fees.NewAssembler(table, &cfg.Chain)

	exchange, err := convert.NewExchange(cfg.Convert, cfg.Chain.TokenDecimals)
	if err != nil {
		return fmt.Errorf("convert config: %w", err)
	}

	registry := gameserver.NewRegistryFromConfig(cfg.Apps, logger)
	uploader := assets.NewUploader(&cfg.Assets, logger)

	mintSvc := mint.NewLog(
		mint.NewService(store, chainClient, registry, uploader, coordinator, assembler, &cfg.Chain, cfg.Signers.Minter, logger),
		logger,
	)
	convertSvc := convert.NewService(store, chainClient, exchange, coordinator, &cfg.Chain, cfg.Signers.Pool, logger)
	lockSvc := lock.NewService(store, chainClient, registry, coordinator, &cfg.Chain, cfg.Signers.LockOwner, logger)
	broadcastSvc := broadcast.NewService(store, chainClient, logger)
	ledgerSvc := ledger.NewService(store, logger)

	router := s.setupRouter(mintSvc, convertSvc, lockSvc, broadcastSvc, ledgerSvc, logger)

	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)

	// Stop background work before deferred DB closes kick in.
	stopReconcile()

	return err
}

// startReconciler runs the periodic sequence reconciliation sweep for the
// service signers and returns its stopper.
func (s *Server) startReconciler(
	ctx context.Context,
	store walletstore.Store,
	chainClient chain.Client,
	logger *zap.Logger,
) func() {
	if !s.cfg.Reconcile.Enabled || s.cfg.Reconcile.Interval <= 0 {
		return func() {}
	}

	signers := []string{
		s.cfg.Signers.Minter.Address,
		s.cfg.Signers.LockOwner.Address,
		s.cfg.Signers.Pool.Address,
	}
	rec := sequence.NewReconciler(store, chainClient, signers, s.cfg.Reconcile.Interval, logger)

	if err := rec.ReconcileAll(ctx); err != nil {
		logger.Warn("Initial sequence reconciliation failed (will retry periodically)", zap.Error(err))
	}

	logger.Info("Starting periodic sequence reconciliation",
		zap.Duration("interval", s.cfg.Reconcile.Interval))
	rec.Start(ctx)

	var once sync.Once
	return func() { once.Do(rec.Stop) }
}

func (s *Server) setupRouter(
	mintSvc mint.Service,
	convertSvc convert.Service,
	lockSvc lock.Service,
	broadcastSvc *broadcast.Service,
	ledgerSvc *ledger.Service,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Second * defaultRequestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	RegisterRoutes(r, mintSvc, convertSvc, lockSvc, broadcastSvc, ledgerSvc, logger)

	return r
}
