package access

import (
	"html/template"
	"log/slog"
	"net/http"
)

var loadingPage = template.Must(template.New("loading").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><meta http-equiv="refresh" content="1"><title>Loading...</title></head>
<body><div class="auth-container"><div class="auth-card"><div class="auth-header">
<div class="auth-logo">A</div><h1 class="auth-title">Loading...</h1>
</div></div></div></body></html>`))

// SourceFunc picks the session a request is evaluated against
type SourceFunc func(*http.Request) Source

// Middleware guards the wrapped handler. The handler runs only on Allow, so
// data behind it is never fetched for a visitor who lacks the privilege.
func (g Gate) Middleware(src SourceFunc, req Requirement, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Evaluate(src(r).Snapshot(), req)
			switch d.Outcome {
			case Allow:
				next.ServeHTTP(w, r)
			case Loading:
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Header().Set("Cache-Control", "no-store")
				if err := loadingPage.Execute(w, nil); err != nil {
					logger.Error("failed to render loading page", "path", r.URL.Path, "error", err)
				}
			default:
				http.Redirect(w, r, d.Location, http.StatusSeeOther)
			}
		})
	}
}
