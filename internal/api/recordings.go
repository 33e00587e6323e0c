package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sparringbot/sparring/internal/recording"
	"github.com/sparringbot/sparring/internal/store"
)

// RecordingHandler serves recording upload, retrieval and deletion. Saving or
// deleting a recording flips the session's recording flag through the store's
// narrow SetRecording update.
type RecordingHandler struct {
	recordings *recording.Store
	repo       store.Repository
	maxBytes   int64
}

// NewRecordingHandler creates a recording handler.
func NewRecordingHandler(recordings *recording.Store, repo store.Repository, maxBytes int64) *RecordingHandler {
	return &RecordingHandler{
		recordings: recordings,
		repo:       repo,
		maxBytes:   maxBytes,
	}
}

// RegisterRoutes registers recording routes.
func (h *RecordingHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/recordings/{sessionID}", func(r chi.Router) {
		r.Post("/", h.Upload)
		r.Get("/list", h.List)
		r.Get("/", h.Download)
		r.Get("/{kind}", h.Download)
		r.Delete("/", h.Delete)
		r.Delete("/{kind}", h.Delete)
	})
}

// Upload stores a recording from a multipart form and marks the session as
// having one.
func (h *RecordingHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		Error(w, http.StatusBadRequest, "recording too large or malformed")
		return
	}

	file, _, err := r.FormFile("recording")
	if err != nil {
		Error(w, http.StatusBadRequest, "no recording file provided")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Debug("failed to close uploaded recording", "error", closeErr)
		}
	}()

	kind := r.FormValue("type")
	if kind == "" {
		kind = recording.DefaultKind
	}

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("failed to read uploaded recording", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to save recording")
		return
	}

	info, err := h.recordings.Save(sessionID, kind, data)
	if err != nil {
		h.writeStoreError(w, sessionID, err)
		return
	}

	if ok, err := h.repo.SetRecording(r.Context(), sessionID, true, h.recordings.URL(sessionID, kind)); err != nil {
		slog.Error("failed to flag session recording", "session_id", sessionID, "error", err)
	} else if !ok {
		slog.Warn("recording saved for unknown session", "session_id", sessionID)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message":   "recording saved",
		"recording": info,
	})
}

// Download streams a stored recording.
func (h *RecordingHandler) Download(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	kind := chi.URLParam(r, "kind")
	if kind == "" {
		kind = recording.DefaultKind
	}

	rec, err := h.recordings.Get(sessionID, kind)
	if err != nil {
		h.writeStoreError(w, sessionID, err)
		return
	}
	if rec == nil {
		Error(w, http.StatusNotFound, "recording not found")
		return
	}

	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set("Content-Disposition", `inline; filename="`+rec.Filename+`"`)
	if _, err := w.Write(rec.Data); err != nil {
		slog.Debug("failed to stream recording", "session_id", sessionID, "error", err)
	}
}

// List returns all recordings stored for a session.
func (h *RecordingHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	infos, err := h.recordings.List(sessionID)
	if err != nil {
		h.writeStoreError(w, sessionID, err)
		return
	}
	if infos == nil {
		infos = []recording.Info{}
	}
	JSON(w, http.StatusOK, infos)
}

// Delete removes a recording and clears the session's recording flag.
func (h *RecordingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	kind := chi.URLParam(r, "kind")
	if kind == "" {
		kind = recording.DefaultKind
	}

	deleted, err := h.recordings.Delete(sessionID, kind)
	if err != nil {
		h.writeStoreError(w, sessionID, err)
		return
	}
	if !deleted {
		Error(w, http.StatusNotFound, "recording not found")
		return
	}

	if _, err := h.repo.SetRecording(r.Context(), sessionID, false, ""); err != nil {
		slog.Error("failed to clear session recording flag", "session_id", sessionID, "error", err)
	}

	JSON(w, http.StatusOK, map[string]string{"message": "recording deleted"})
}

func (h *RecordingHandler) writeStoreError(w http.ResponseWriter, sessionID string, err error) {
	if errors.Is(err, recording.ErrInvalidName) {
		Error(w, http.StatusBadRequest, "invalid session id or recording type")
		return
	}
	slog.Error("recording store error", "session_id", sessionID, "error", err)
	Error(w, http.StatusInternalServerError, "recording store error")
}
