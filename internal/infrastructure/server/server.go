package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/termbridge/internal/api/http"
	"github.com/GriffinCanCode/termbridge/internal/api/middleware"
	"github.com/GriffinCanCode/termbridge/internal/api/ws"
	"github.com/GriffinCanCode/termbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/termbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/termbridge/internal/providers/terminal"
	"github.com/GriffinCanCode/termbridge/internal/service"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	http      *http.Server
	registry  *service.Registry
	terminals *terminal.Manager
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return newServer(cfg, logger)
}

func newLogger(cfg config.LogConfig) (*logging.Logger, error) {
	if cfg.Level == "" {
		if cfg.Development {
			return logging.NewDevelopment(), nil
		}
		return logging.NewDefault(), nil
	}

	logCfg := logging.DefaultConfig()
	if cfg.Development {
		logCfg = logging.DevelopmentConfig()
	}
	logCfg.Level = cfg.Level
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func newServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	logger.Info("Initializing termbridge server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	metrics := monitoring.NewMetrics()

	terminals := terminal.NewManager(terminal.Config{
		Shell:            cfg.Terminal.Shell,
		Cols:             cfg.Terminal.Cols,
		Rows:             cfg.Terminal.Rows,
		OutputBuffer:     cfg.Terminal.OutputBuffer,
		ReadSize:         cfg.Terminal.ReadSize,
		ClipboardHistory: cfg.Terminal.ClipboardHistory,
		StreamBuffer:     cfg.Terminal.StreamBuffer,
		MaxPending:       cfg.Terminal.MaxPending,
		HomeDir:          cfg.Terminal.HomeDir,
	}, logger, metrics)

	serviceRegistry := service.NewRegistry()
	if err := serviceRegistry.Register(terminal.NewProvider(terminals)); err != nil {
		return nil, fmt.Errorf("failed to register terminal provider: %w", err)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger.Named("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled && cfg.RateLimit.GlobalRPS > 0 {
		router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.GlobalRPS,
			Burst:             cfg.RateLimit.GlobalBurst,
		}))
	}
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(serviceRegistry, terminals, apihttp.NewHandlerMetrics(metrics), logger.Named("api"))
	handlers.Register(router)

	wsHandler := ws.NewHandler(terminals, metrics, logger.Named("ws"))
	router.GET("/terminals/:id/stream", wsHandler.HandleStream)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	return &Server{
		router:    router,
		http:      &http.Server{Addr: addr, Handler: router},
		registry:  serviceRegistry,
		terminals: terminals,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops. A clean Shutdown
// returns nil.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Close kills every terminal session and flushes the logger
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.terminals.CloseAll()
	s.logger.Info("Closed terminal sessions")

	_ = s.logger.Sync()
	return nil
}
