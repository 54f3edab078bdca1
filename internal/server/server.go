// Package server exposes the local control API: settings and profile
// editing, the auto-reply toggle, manual greeting and the raw request
// boundary of the model gateway.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"go-boss-assistant/internal/ai"
	"go-boss-assistant/internal/assistant"
	"go-boss-assistant/internal/greeting"
	"go-boss-assistant/internal/models"
	"go-boss-assistant/internal/notify"
	"go-boss-assistant/internal/store"

	"github.com/gin-gonic/gin"
)

// Gateway is the model gateway as seen from HTTP.
type Gateway interface {
	Dispatch(ctx context.Context, req assistant.Request) assistant.Response
	TestConnection(ctx context.Context, settings models.ModelSettings) error
}

type Greeter interface {
	Generate(ctx context.Context) (string, error)
}

// Toggle is told when the auto-reply switch changes.
type Toggle interface {
	SetEnabled(enabled bool)
}

type History interface {
	RecentReplies(ctx context.Context, limit int) ([]models.ReplyRecord, error)
}

type Handler struct {
	records  *store.Records
	gateway  Gateway
	greeter  Greeter
	toggle   Toggle
	history  History
	notifier notify.Notifier
}

func NewHandler(records *store.Records, gateway Gateway) *Handler {
	return &Handler{records: records, gateway: gateway, notifier: notify.Log{}}
}

// WithPage wires the handlers that need a live chat page.
func (h *Handler) WithPage(greeter Greeter, toggle Toggle) *Handler {
	h.greeter = greeter
	h.toggle = toggle
	return h
}

func (h *Handler) WithHistory(history History) *Handler {
	h.history = history
	return h
}

func (h *Handler) WithNotifier(n notify.Notifier) *Handler {
	if n != nil {
		h.notifier = n
	}
	return h
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.health)

	api := router.Group("/api")
	api.POST("/dispatch", h.dispatch)
	api.POST("/greeting", h.greeting)
	api.POST("/test-connection", h.testConnection)
	api.GET("/settings", h.getSettings)
	api.PUT("/settings", h.putSettings)
	api.GET("/profile", h.getProfile)
	api.PUT("/profile", h.putProfile)
	api.GET("/auto-reply", h.getAutoReply)
	api.PUT("/auto-reply", h.putAutoReply)
	api.POST("/options/open", h.openOptions)
	api.GET("/options/hint", h.optionsHint)
	api.GET("/replies", h.replies)
}

func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()
	h.RegisterRoutes(r)
	return r
}

// Run serves router on addr until ctx is done.
func Run(ctx context.Context, addr string, router http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🌐 [server] Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"page":   h.greeter != nil,
	})
}

func (h *Handler) dispatch(c *gin.Context) {
	var req assistant.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, assistant.Response{Error: "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, h.gateway.Dispatch(c.Request.Context(), req))
}

func (h *Handler) greeting(c *gin.Context) {
	if h.greeter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chat page is not attached"})
		return
	}
	ctx := c.Request.Context()
	text, err := h.greeter.Generate(ctx)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, greeting.ErrInProgress):
			status = http.StatusConflict
		case errors.Is(err, greeting.ErrNoConversation), errors.Is(err, ai.ErrIncompleteSettings):
			status = http.StatusPreconditionFailed
		}
		h.report(ctx, "Greeting", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"greeting": text})
}

// testConnection pings the model with the posted settings, or the saved ones
// when the body is empty.
func (h *Handler) testConnection(c *gin.Context) {
	ctx := c.Request.Context()
	var settings models.ModelSettings
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&settings); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	} else {
		saved, err := h.records.Settings(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		settings = saved
	}

	if err := h.gateway.TestConnection(ctx, settings); err != nil {
		h.report(ctx, "Connection test", err)
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) report(ctx context.Context, action string, err error) {
	if nerr := notify.Error(ctx, h.notifier, action, err); nerr != nil {
		log.Printf("⚠️ [server] Failed to notify: %v", nerr)
	}
}

func (h *Handler) getSettings(c *gin.Context) {
	s, err := h.records.Settings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) putSettings(c *gin.Context) {
	var s models.ModelSettings
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.records.SaveSettings(c.Request.Context(), s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getProfile(c *gin.Context) {
	p, err := h.records.Profile(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) putProfile(c *gin.Context) {
	var p models.CandidateProfile
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.records.SaveProfile(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type autoReplyBody struct {
	Enabled *bool `json:"enabled"`
}

func (h *Handler) getAutoReply(c *gin.Context) {
	on, err := h.records.AutoReplyEnabled(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": on})
}

func (h *Handler) putAutoReply(c *gin.Context) {
	var body autoReplyBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled is required"})
		return
	}
	if err := h.records.SetAutoReplyEnabled(c.Request.Context(), *body.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if h.toggle != nil {
		h.toggle.SetEnabled(*body.Enabled)
	}
	c.JSON(http.StatusOK, gin.H{"enabled": *body.Enabled})
}

type openOptionsBody struct {
	Section string `json:"section"`
}

// openOptions records which settings section the next options view should
// scroll to.
func (h *Handler) openOptions(c *gin.Context) {
	var body openOptionsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if body.Section != "" {
		if err := h.records.SetScrollHint(c.Request.Context(), body.Section); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) optionsHint(c *gin.Context) {
	section, err := h.records.TakeScrollHint(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"section": section})
}

func (h *Handler) replies(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "reply history is not configured"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	records, err := h.history.RecentReplies(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"replies": records})
}
