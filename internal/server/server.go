package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/opengovchat/decision-bot-go/internal/config"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/service/ai"
	"github.com/opengovchat/decision-bot-go/internal/service/cache"
	"github.com/opengovchat/decision-bot-go/internal/service/database"
	"go.uber.org/zap"
)

// Routing drives one chat message end to end.
type Routing interface {
	Route(ctx context.Context, req *domain.ChatRequest) (*domain.ChatReply, error)
}

// Classifying exposes the deterministic classifier for the side-effect-free
// classify endpoint.
type Classifying interface {
	Classify(text string) *domain.ClassificationResult
}

// Dependencies holds everything the HTTP surface needs. Cache, Postgres and
// Models are optional; the health endpoint reports whatever is wired.
type Dependencies struct {
	Router     Routing
	Classifier Classifying
	Cache      *cache.CacheService
	Postgres   *database.PostgresService
	Models     *ai.ModelManager
	Logger     *zap.Logger
}

// Server is the chat-facing HTTP and WebSocket surface.
type Server struct {
	httpServer     *http.Server
	deps           *Dependencies
	upgrader       websocket.Upgrader
	allowedOrigins map[string]struct{}
	logger         *zap.Logger
}

func New(cfg config.ServerConfig, deps *Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		deps:           deps,
		allowedOrigins: originSet(cfg.AllowedOrigins),
		logger:         logger,
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/classify", s.handleClassify)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start blocks serving requests until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// checkOrigin admits same-host tools (no Origin header) and any origin on
// the configured allowlist. An empty allowlist admits everyone.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.allowedOrigins) == 0 {
		return true
	}
	_, ok := s.allowedOrigins[origin]
	return ok
}

func originSet(origins []string) map[string]struct{} {
	set := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o != "" {
			set[o] = struct{}{}
		}
	}
	return set
}
