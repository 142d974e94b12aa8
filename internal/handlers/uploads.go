package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"certstudio/internal/imaging"
	"certstudio/internal/middleware"
	"certstudio/internal/storage"
)

// Uploads handles element image uploads: validate, recompress, store in
// the public bucket, and hand back the URL the element embeds.
type Uploads struct {
	storage *storage.Client
	imgCfg  imaging.Config
}

// NewUploads creates a new Uploads handler group.
func NewUploads(storageClient *storage.Client, imgCfg imaging.Config) *Uploads {
	return &Uploads{storage: storageClient, imgCfg: imgCfg}
}

type uploadImageResponse struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Image accepts a multipart form with an "image" part.
func (h *Uploads) Image(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		respondError(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.imgCfg.MaxSizeBytes+maxBodyBytes)
	if err := r.ParseMultipartForm(h.imgCfg.MaxSizeBytes); err != nil {
		respondError(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing image")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	result, err := imaging.Process(data, h.imgCfg)
	if err != nil {
		var verr *imaging.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Reason)
			return
		}
		serverError(w, "image processing failed", err)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	key := fmt.Sprintf("elements/%s/%d-%s.jpg", sess.UserID, time.Now().Unix(), uuid.NewString()[:8])

	url, err := h.storage.UploadElementImage(r.Context(), key, result.ContentType, result.Data)
	if err != nil {
		serverError(w, "image upload failed", err)
		return
	}

	respond(w, http.StatusCreated, uploadImageResponse{
		URL:    url,
		Width:  result.Width,
		Height: result.Height,
	})
}

// DeleteImage removes a previously uploaded element image by its URL.
// URLs outside our storage are ignored rather than rejected so the
// editor can fire-and-forget cleanup on element deletion.
func (h *Uploads) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		respondError(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key, ok := h.storage.ExtractKey(req.URL)
	if !ok {
		respond(w, http.StatusOK, nil)
		return
	}
	if err := h.storage.DeleteElementImage(r.Context(), key); err != nil {
		serverError(w, "image delete failed", err)
		return
	}
	respond(w, http.StatusOK, nil)
}
