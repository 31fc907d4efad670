package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fermoza/mika-go/internal/mika/config"
	contextx "github.com/fermoza/mika-go/internal/mika/context"
	logx "github.com/fermoza/mika-go/internal/mika/log"
)

const requestIDHeader = "X-Request-ID"

// Middleware holds the gin middlewares shared by every route.
type Middleware struct {
	cfg    *config.APIConfig
	logger *logx.Logger
}

// NewMiddleware creates the middleware set
func NewMiddleware(cfg *config.APIConfig, logger *logx.Logger) *Middleware {
	return &Middleware{cfg: cfg, logger: logger}
}

// RequestID propagates X-Request-ID, generating one when absent, and stores it
// in the request context for logging.
func (m *Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(contextx.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// LogRequest writes one line per completed request.
func (m *Middleware) LogRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		fields := []logx.Field{
			logx.KV("method", c.Request.Method),
			logx.KV("path", c.Request.URL.Path),
			logx.KV("status", c.Writer.Status()),
			logx.KV("latency_ms", time.Since(started).Milliseconds()),
			logx.KV("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			m.logger.Warn(c.Request.Context(), "http request", fields...)
			return
		}
		m.logger.Info(c.Request.Context(), "http request", fields...)
	}
}

// Recovery turns panics into the generic failure body.
func (m *Middleware) Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		m.logger.Error(c.Request.Context(), "panic recovered",
			logx.KV("path", c.Request.URL.Path),
			logx.KV("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errFailed})
	})
}

// CORS applies the configured origins. "*" allows every origin.
func (m *Middleware) CORS() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		AllowWildcard: true,
		MaxAge:        12 * time.Hour,
	}
	if originAllowed(m.cfg.CORSOrigins, "*") || len(m.cfg.CORSOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = m.cfg.CORSOrigins
	}
	return cors.New(cfg)
}

// RequestSizeLimit rejects bodies larger than MaxRequestSize with 413.
func (m *Middleware) RequestSizeLimit() gin.HandlerFunc {
	limit := m.cfg.MaxRequestSize
	return func(c *gin.Context) {
		if limit <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": errTooLarge})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func originAllowed(origins []string, origin string) bool {
	for _, o := range origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
