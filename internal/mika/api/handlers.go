package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	logx "github.com/fermoza/mika-go/internal/mika/log"
	"github.com/fermoza/mika-go/internal/mika/types"
	"github.com/fermoza/mika-go/internal/mika/usage"
)

const (
	errFailed   = "mika_failed"
	errTooLarge = "request_too_large"
	errBadDay   = "day must be YYYY-MM-DD"
	timeLayout  = "2006-01-02T15:04:05.000Z07:00"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"provider": "openai",
		"apiBase":  s.cfg.API.Base,
		"time":     s.now().UTC().Format(timeLayout),
	})
}

func (s *Server) handleChat(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": errTooLarge})
			return
		}
		s.logger.Warn(c.Request.Context(), "read chat body failed", logx.KV("error", err))
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrInvalidRequest.Error()})
		return
	}

	// The upstream call is bounded by its own timeout; a client disconnect does
	// not cancel it.
	ctx := context.WithoutCancel(c.Request.Context())
	status, reply := s.chat(ctx, body)
	c.JSON(status, reply)
}

// chat decodes one payload and runs the pipeline, returning the status and the
// body to send. It is shared by the HTTP and WebSocket transports.
func (s *Server) chat(ctx context.Context, body []byte) (int, any) {
	req, err := types.DecodeChatRequest(body)
	if err != nil {
		s.stylist.RecordInvalid(ctx)
		s.logger.Warn(ctx, "invalid chat request", logx.KV("error", err))
		return http.StatusBadRequest, gin.H{"error": types.ErrInvalidRequest.Error()}
	}

	resp, err := s.stylist.Chat(ctx, req)
	if err != nil {
		if errors.Is(err, types.ErrInvalidRequest) {
			return http.StatusBadRequest, gin.H{"error": types.ErrInvalidRequest.Error()}
		}
		return http.StatusInternalServerError, gin.H{"error": errFailed}
	}
	return http.StatusOK, resp
}

func (s *Server) handleSchema(c *gin.Context) {
	c.JSON(http.StatusOK, types.ResponseSchema())
}

func (s *Server) handleUsage(c *gin.Context) {
	day := s.now()
	if raw := c.Query("day"); raw != "" {
		parsed, err := time.Parse(usage.DayLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errBadDay})
			return
		}
		day = parsed
	}

	stats, err := s.stylist.Usage(c.Request.Context(), day)
	if err != nil {
		s.logger.Error(c.Request.Context(), "usage lookup failed", logx.KV("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": errFailed})
		return
	}
	c.JSON(http.StatusOK, stats)
}
