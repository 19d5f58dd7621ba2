package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"iruka_console/internal/models"
	"iruka_console/internal/services"

	"github.com/go-chi/chi/v5"
)

type Uploader interface {
	RequestUploadSlot(ctx context.Context, actor services.Actor, ref services.GameRef, version, fileName string) (*services.UploadSlot, error)
	UploadDirect(ctx context.Context, actor services.Actor, ref services.GameRef, version, fileName string, data []byte) (*models.GameVersion, error)
	CompleteUpload(ctx context.Context, actor services.Actor, ref services.GameRef, version, storagePath, fileName string, fileSize int64) (*models.GameVersion, error)
}

type UploadSlotRequest struct {
	FileName string `json:"file_name"`
}

type CompleteUploadRequest struct {
	StoragePath string `json:"storage_path"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
}

type UploadController struct {
	uploader Uploader
	maxBytes int64
	log      *slog.Logger
}

func NewUploadController(uploader Uploader, maxBytes int64, log *slog.Logger) *UploadController {
	return &UploadController{
		uploader: uploader,
		maxBytes: maxBytes,
		log:      log,
	}
}

// RequestUploadSlot issues the signed direct-write URL for the large-file
// path. The client uploads the archive itself and then calls Complete.
func (c *UploadController) RequestUploadSlot(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.uploads.RequestUploadSlot"

	actor, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
		return
	}

	var request UploadSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		c.log.Error(ErrBadRequest.Error(), slog.String("operation", op), slog.String("error", err.Error()))
		http.Error(w, ErrBadRequest.Error(), http.StatusBadRequest)
		return
	}

	slot, err := c.uploader.RequestUploadSlot(
		r.Context(),
		actor,
		gameRefFromRequest(r),
		chi.URLParam(r, "version"),
		request.FileName,
	)
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	writeJSON(w, c.log, http.StatusOK, slot)
}

// Upload is the small-file path: the raw archive bytes are the request
// body, capped at the configured direct-upload threshold.
func (c *UploadController) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.uploads.Upload"

	actor, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
		return
	}

	fileName := r.URL.Query().Get("file_name")
	if fileName == "" {
		http.Error(w, "missing file_name query", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, c.maxBytes))
	if err != nil {
		c.log.Error(
			"archive exceeds direct upload limit",
			slog.String("operation", op),
			slog.Int64("limit", c.maxBytes),
			slog.String("error", err.Error()))
		http.Error(w, "archive too large for direct upload, request an upload slot", http.StatusRequestEntityTooLarge)
		return
	}

	version, err := c.uploader.UploadDirect(
		r.Context(),
		actor,
		gameRefFromRequest(r),
		chi.URLParam(r, "version"),
		fileName,
		data,
	)
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	writeJSON(w, c.log, http.StatusCreated, version)
}

func (c *UploadController) Complete(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.uploads.Complete"

	actor, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
		return
	}

	var request CompleteUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		c.log.Error(ErrBadRequest.Error(), slog.String("operation", op), slog.String("error", err.Error()))
		http.Error(w, ErrBadRequest.Error(), http.StatusBadRequest)
		return
	}

	version, err := c.uploader.CompleteUpload(
		r.Context(),
		actor,
		gameRefFromRequest(r),
		chi.URLParam(r, "version"),
		request.StoragePath,
		request.FileName,
		request.FileSize,
	)
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	writeJSON(w, c.log, http.StatusCreated, version)
}
