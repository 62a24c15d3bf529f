package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/foxzi/statboard/internal/models"
	"github.com/foxzi/statboard/internal/stats"
	"github.com/foxzi/statboard/internal/web/sessions"
	"github.com/foxzi/statboard/internal/web/views"
)

// Handlers serve the dashboard pages. Every handler acts on the browser
// session the sessions middleware attached to the request.
type Handlers struct {
	logger    *slog.Logger
	views     *views.Engine
	sessions  *sessions.Registry
	campaigns *stats.CampaignData
	format    *stats.Formatter
}

func New(reg *sessions.Registry, campaigns *stats.CampaignData, format *stats.Formatter, engine *views.Engine, logger *slog.Logger) *Handlers {
	if campaigns == nil {
		campaigns = &stats.CampaignData{}
	}
	return &Handlers{
		logger:    logger,
		views:     engine,
		sessions:  reg,
		campaigns: campaigns,
		format:    format,
	}
}

// page is what the layout renders around every page
type page struct {
	Title        string
	Active       string
	Identity     *models.Identity
	PendingCount int
	Error        string
	Success      string
	CSRF         string
	Data         any
}

// Health check
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.json(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"session":  current(r).Manager.Snapshot().State.String(),
		"sessions": strconv.Itoa(h.sessions.Len()),
	})
}

func current(r *http.Request) *sessions.Session {
	return sessions.FromContext(r.Context())
}

func (h *Handlers) newPage(r *http.Request, title, active string, data any) *page {
	return &page{
		Title:    title,
		Active:   active,
		Identity: current(r).Manager.Snapshot().Identity,
		CSRF:     sessions.CSRFToken(r.Context()),
		Data:     data,
	}
}

// Helper to render templates
func (h *Handlers) render(w http.ResponseWriter, status int, name string, p *page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := h.views.Render(w, name, p); err != nil {
		h.logger.Error("failed to render template", "template", name, "error", err)
	}
}

// Helper for JSON responses
func (h *Handlers) json(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
