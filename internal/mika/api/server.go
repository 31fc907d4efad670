package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/fermoza/mika-go/internal/mika/config"
	logx "github.com/fermoza/mika-go/internal/mika/log"
	"github.com/fermoza/mika-go/internal/mika/stylist"
)

// Server exposes the stylist over HTTP and WebSocket.
type Server struct {
	cfg      *config.Config
	logger   *logx.Logger
	stylist  *stylist.Service
	engine   *gin.Engine
	upgrader websocket.Upgrader
	srv      *http.Server
	now      func() time.Time
}

// NewServer builds the gin engine and registers every route under cfg.API.Base.
func NewServer(cfg *config.Config, logger *logx.Logger, svc *stylist.Service) *Server {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		stylist: svc,
		engine:  gin.New(),
		now:     time.Now,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	mw := NewMiddleware(&cfg.API, logger)
	s.engine.Use(mw.RequestID(), mw.LogRequest(), mw.Recovery(), mw.CORS(), mw.RequestSizeLimit())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	base := s.engine.Group(s.cfg.API.Base)
	{
		base.GET("/health", s.handleHealth)
		base.POST("/chat", s.handleChat)
		base.GET("/chat/ws", s.handleChatWS)
		base.GET("/schema", s.handleSchema)
		base.GET("/usage", s.handleUsage)
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on cfg.API.Addr() until Stop is called.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              s.cfg.API.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info(context.Background(), "http server starting",
		logx.KV("addr", s.srv.Addr),
		logx.KV("api_base", s.cfg.API.Base))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.API.CORSOrigins) == 0 {
		return true
	}
	return originAllowed(s.cfg.API.CORSOrigins, origin)
}
