package posts

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jensneuse/abstractlogger"
)

const updatePathPrefix = "/posts/"

// Handler serves the page on "/" and turns "POST /posts/{id}" into an update of that post.
type Handler struct {
	app    *App
	logger abstractlogger.Logger
}

func NewHandler(app *App, logger abstractlogger.Logger) *Handler {
	if logger == nil {
		logger = abstractlogger.Noop{}
	}
	return &Handler{
		app:    app,
		logger: logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/":
		h.servePage(w, r)
	case strings.HasPrefix(r.URL.Path, updatePathPrefix):
		h.serveUpdate(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.app.Render(r.Context(), w); err != nil {
		h.logger.Error("posts.Handler.servePage: on render",
			abstractlogger.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	}
}

func (h *Handler) serveUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	escaped := strings.TrimPrefix(r.URL.EscapedPath(), updatePathPrefix)
	id, err := url.PathUnescape(escaped)
	if err != nil || id == "" || strings.Contains(escaped, "/") {
		http.NotFound(w, r)
		return
	}

	// the mutation is logged by the app, the page changes once the event arrives
	if _, err := h.app.UpdatePost(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
