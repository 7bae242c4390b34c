// Package dashboard serves the single-page chat UI.
package dashboard

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
)

//go:embed static
var embedded embed.FS

// Handler serves index.html at / and assets under /static/.
type Handler struct {
	files fs.FS
}

// New serves the embedded UI, or the files in dir when dir is non-empty.
func New(dir string) (*Handler, error) {
	if strings.TrimSpace(dir) != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
		return &Handler{files: os.DirFS(dir)}, nil
	}
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		return nil, err
	}
	return &Handler{files: sub}, nil
}

// RegisterRoutes mounts the UI.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(h.files))))
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.files, "index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}
