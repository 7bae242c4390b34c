package upload

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/menuka400/chatbot-spera/pkg/utils"
)

// allowedExtensions are the document types accepted for upload.
var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".txt":  {},
	".docx": {},
	".md":   {},
}

// Handler stores uploaded documents. Files are only kept on disk; nothing in
// the chat flow reads them yet.
type Handler struct {
	dir      string
	maxBytes int64
	logger   *slog.Logger
}

// New creates an upload handler writing into dir.
func New(dir string, maxBytes int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = 16 << 20
	}
	return &Handler{dir: dir, maxBytes: maxBytes, logger: logger}
}

// RegisterRoutes mounts POST /upload.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/upload", h.handleUpload)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxBytes {
		utils.RespondError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "No file part")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if filename == "" {
		utils.RespondError(w, http.StatusBadRequest, "No selected file")
		return
	}
	if !Allowed(filename) {
		utils.RespondError(w, http.StatusBadRequest, "File type not allowed")
		return
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		h.logger.Error("create upload dir failed", "dir", h.dir, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	if err := h.save(file, filename); err != nil {
		h.logger.Error("save upload failed", "file", filename, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	h.logger.Info("file uploaded", "file", filename, "bytes", header.Size)
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message":  "File uploaded successfully",
		"filename": filename,
	})
}

// save writes through a temporary file so a failed copy never leaves a
// truncated document under the final name.
func (h *Handler) save(src io.Reader, filename string) error {
	tmp, err := os.CreateTemp(h.dir, ".upload-"+uuid.NewString()+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(h.dir, filename))
}

// Allowed reports whether filename carries an accepted extension.
func Allowed(filename string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// sanitizeFilename drops any directory part and characters that are unsafe in
// file names.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}
