package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"certstudio/internal/csvdata"
	"certstudio/internal/middleware"
	"certstudio/internal/models"
	"certstudio/internal/store"
)

// Datasets handles recipient CSV uploads and dataset management.
type Datasets struct {
	datasetStore   *store.DatasetStore
	maxUploadBytes int64
}

// NewDatasets creates a new Datasets handler group.
func NewDatasets(datasetStore *store.DatasetStore, maxUploadBytes int64) *Datasets {
	return &Datasets{datasetStore: datasetStore, maxUploadBytes: maxUploadBytes}
}

// Upload accepts a multipart form with a "file" CSV part and an optional
// "name" field (defaults to the filename without extension).
func (h *Datasets) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".csv" && ext != ".txt" {
		respondError(w, http.StatusBadRequest, "only CSV files are accepted")
		return
	}

	table, err := csvdata.Parse(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	sess := middleware.SessionFromCtx(r.Context())
	ds, err := h.datasetStore.Create(sess.UserID, name, table.Headers, table.Rows)
	if err != nil {
		serverError(w, "dataset create failed", err)
		return
	}
	respond(w, http.StatusCreated, ds)
}

// List returns the user's datasets without their rows.
func (h *Datasets) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	datasets, err := h.datasetStore.ListByUser(sess.UserID)
	if err != nil {
		serverError(w, "dataset list failed", err)
		return
	}
	respond(w, http.StatusOK, datasets)
}

// Get returns one dataset including its rows.
func (h *Datasets) Get(w http.ResponseWriter, r *http.Request) {
	ds := h.loadOwned(w, r)
	if ds == nil {
		return
	}
	respond(w, http.StatusOK, ds)
}

// Delete removes a dataset.
func (h *Datasets) Delete(w http.ResponseWriter, r *http.Request) {
	ds := h.loadOwned(w, r)
	if ds == nil {
		return
	}
	if err := h.datasetStore.Delete(ds.ID); err != nil {
		serverError(w, "dataset delete failed", err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *Datasets) loadOwned(w http.ResponseWriter, r *http.Request) *models.Dataset {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid dataset id")
		return nil
	}
	ds, err := h.datasetStore.FindByID(id)
	if err != nil {
		serverError(w, "dataset lookup failed", err)
		return nil
	}
	if ds == nil {
		respondError(w, http.StatusNotFound, "dataset not found")
		return nil
	}
	sess := middleware.SessionFromCtx(r.Context())
	if ds.UserID != sess.UserID {
		respondError(w, http.StatusForbidden, "not your dataset")
		return nil
	}
	return ds
}
