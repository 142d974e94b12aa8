package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"

	"certstudio/internal/cache"
	"certstudio/internal/generate"
	"certstudio/internal/middleware"
	"certstudio/internal/models"
	"certstudio/internal/storage"
	"certstudio/internal/store"
)

// runTimeout bounds one background generation run.
const runTimeout = 30 * time.Minute

// Generate runs certificate batch generation. A run is started with one
// request, executes in the background, reports progress through Valkey,
// and leaves its outputs in the private bucket under the run's prefix.
type Generate struct {
	pipeline      *generate.Pipeline
	templateStore *store.TemplateStore
	datasetStore  *store.DatasetStore
	genStore      *store.GenerationStore
	storage       *storage.Client
	progress      *cache.ProgressTracker
}

// NewGenerate creates a new Generate handler group.
func NewGenerate(
	pipeline *generate.Pipeline,
	templateStore *store.TemplateStore,
	datasetStore *store.DatasetStore,
	genStore *store.GenerationStore,
	storageClient *storage.Client,
	progress *cache.ProgressTracker,
) *Generate {
	return &Generate{
		pipeline:      pipeline,
		templateStore: templateStore,
		datasetStore:  datasetStore,
		genStore:      genStore,
		storage:       storageClient,
		progress:      progress,
	}
}

type startGenerationRequest struct {
	TemplateID      string            `json:"template_id"`
	DatasetID       string            `json:"dataset_id"`
	Format          generate.Format   `json:"format"`
	BatchSize       int               `json:"batch_size"`
	Quality         *generate.Quality `json:"quality"`
	ContinueOnError bool              `json:"continue_on_error"`
}

// Start validates the run settings, records the run, and kicks off
// generation in the background. Responds 202 with the run record; the
// client polls Progress and fetches Downloads when done.
func (h *Generate) Start(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		respondError(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}

	var req startGenerationRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Format {
	case generate.FormatPDF, generate.FormatDOCX, generate.FormatPPTX:
	default:
		respondError(w, http.StatusBadRequest, "format must be pdf, docx, or pptx")
		return
	}
	if req.BatchSize == 0 {
		req.BatchSize = generate.DefaultBatchSize
	}
	if req.BatchSize < generate.MinBatchSize || req.BatchSize > generate.MaxBatchSize {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("batch_size must be between %d and %d", generate.MinBatchSize, generate.MaxBatchSize))
		return
	}

	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid template_id")
		return
	}
	datasetID, err := uuid.Parse(req.DatasetID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid dataset_id")
		return
	}

	sess := middleware.SessionFromCtx(r.Context())

	tmpl, err := h.templateStore.FindByID(templateID)
	if err != nil {
		serverError(w, "template lookup failed", err)
		return
	}
	if tmpl == nil || (tmpl.UserID != sess.UserID && !tmpl.IsPublic) {
		respondError(w, http.StatusNotFound, "template not found")
		return
	}

	ds, err := h.datasetStore.FindByID(datasetID)
	if err != nil {
		serverError(w, "dataset lookup failed", err)
		return
	}
	if ds == nil || ds.UserID != sess.UserID {
		respondError(w, http.StatusNotFound, "dataset not found")
		return
	}
	if len(ds.Rows) == 0 {
		respondError(w, http.StatusBadRequest, "dataset has no rows")
		return
	}

	record, err := h.genStore.Create(tmpl.ID, sess.UserID, len(ds.Rows), string(req.Format), req.BatchSize)
	if err != nil {
		serverError(w, "generation record create failed", err)
		return
	}

	quality := generate.DefaultQuality()
	if req.Quality != nil {
		quality = *req.Quality
	}
	opts := generate.Options{
		Format:          req.Format,
		BatchSize:       req.BatchSize,
		Quality:         quality,
		ContinueOnError: req.ContinueOnError,
	}

	go h.run(record, tmpl, ds.Rows, opts)

	respond(w, http.StatusAccepted, record)
}

// run executes one generation in the background, detached from the
// request context.
func (h *Generate) run(record *models.GenerationRecord, tmpl *models.Template, rows []models.RecipientRow, opts generate.Options) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	jobID := record.ID.String()
	log := slog.With("generation_id", jobID, "template_id", tmpl.ID, "format", opts.Format)

	if err := h.genStore.SetStatus(record.ID, models.GenerationProcessing, nil); err != nil {
		log.Error("generation status update failed", "error", err)
	}

	var last generate.Progress
	opts.OnProgress = func(p generate.Progress) {
		last = p
		if h.progress != nil {
			h.progress.Update(ctx, jobID, p)
		}
	}

	result, err := h.pipeline.Run(ctx, tmpl, rows, opts)
	if err != nil {
		h.fail(ctx, record.ID, jobID, last, err)
		return
	}

	for i, blob := range result.Blobs {
		if blob.Data == nil {
			continue // failed row under ContinueOnError
		}
		key := generatedKey(jobID, i, blob.Filename)
		if err := h.storage.UploadGenerated(ctx, key, blob.ContentType, blob.Data); err != nil {
			h.fail(ctx, record.ID, jobID, last, err)
			return
		}
	}

	status := models.GenerationCompleted
	var errMsg *string
	if len(result.Failed) > 0 {
		msg := fmt.Sprintf("%d of %d rows failed", len(result.Failed), len(rows))
		errMsg = &msg
	}
	if err := h.genStore.SetStatus(record.ID, status, errMsg); err != nil {
		log.Error("generation status update failed", "error", err)
	}
	if h.progress != nil {
		h.progress.Finish(ctx, jobID, last)
	}
	log.Info("generation completed", "count", len(rows), "failed", len(result.Failed))
}

func (h *Generate) fail(ctx context.Context, id uuid.UUID, jobID string, last generate.Progress, err error) {
	slog.Error("generation failed", "generation_id", jobID, "error", err)
	msg := err.Error()
	if serr := h.genStore.SetStatus(id, models.GenerationFailed, &msg); serr != nil {
		slog.Error("generation status update failed", "generation_id", jobID, "error", serr)
	}
	if h.progress != nil {
		h.progress.Fail(ctx, jobID, last, msg)
	}
}

// generatedKey builds the private-bucket key for one output document.
// The index prefix keeps listings in input-row order.
func generatedKey(jobID string, index int, filename string) string {
	return path.Join("generated", jobID, fmt.Sprintf("%04d-%s", index+1, filename))
}

// Progress reports the state of a run. Falls back to the durable record
// when the Valkey entry has expired.
func (h *Generate) Progress(w http.ResponseWriter, r *http.Request) {
	record := h.loadOwned(w, r)
	if record == nil {
		return
	}

	if h.progress != nil {
		if jp, ok := h.progress.Get(r.Context(), record.ID.String()); ok {
			respond(w, http.StatusOK, jp)
			return
		}
	}

	// Synthesize a terminal progress entry from the record.
	jp := cache.JobProgress{
		Progress: generate.Progress{Current: record.Count, Total: record.Count},
		Done:     record.Status == models.GenerationCompleted || record.Status == models.GenerationFailed,
	}
	if record.Status == models.GenerationFailed && record.Error != nil {
		jp.Error = *record.Error
		jp.Progress = generate.Progress{Total: record.Count}
	}
	respond(w, http.StatusOK, jp)
}

type downloadEntry struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Downloads lists presigned URLs for a completed run's documents.
func (h *Generate) Downloads(w http.ResponseWriter, r *http.Request) {
	record := h.loadOwned(w, r)
	if record == nil {
		return
	}
	if record.Status != models.GenerationCompleted {
		respondError(w, http.StatusConflict, "generation is not completed")
		return
	}
	if h.storage == nil {
		respondError(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}

	prefix := path.Join("generated", record.ID.String()) + "/"
	keys, err := h.storage.ListGenerated(r.Context(), prefix)
	if err != nil {
		serverError(w, "generated files list failed", err)
		return
	}

	entries := make([]downloadEntry, 0, len(keys))
	for _, key := range keys {
		url, err := h.storage.DownloadURL(r.Context(), key, storage.DefaultDownloadExpiry)
		if err != nil {
			serverError(w, "download url failed", err)
			return
		}
		// Strip the ordering prefix added by generatedKey.
		name := path.Base(key)
		if len(name) > 5 && name[4] == '-' {
			name = name[5:]
		}
		entries = append(entries, downloadEntry{Filename: name, URL: url})
	}
	respond(w, http.StatusOK, entries)
}

// History returns the user's past runs, newest first.
func (h *Generate) History(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	records, err := h.genStore.ListByUser(sess.UserID, limit)
	if err != nil {
		serverError(w, "generation history failed", err)
		return
	}
	respond(w, http.StatusOK, records)
}

// Get returns one run record.
func (h *Generate) Get(w http.ResponseWriter, r *http.Request) {
	record := h.loadOwned(w, r)
	if record == nil {
		return
	}
	respond(w, http.StatusOK, record)
}

func (h *Generate) loadOwned(w http.ResponseWriter, r *http.Request) *models.GenerationRecord {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid generation id")
		return nil
	}
	record, err := h.genStore.FindByID(id)
	if err != nil {
		serverError(w, "generation lookup failed", err)
		return nil
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "generation not found")
		return nil
	}
	sess := middleware.SessionFromCtx(r.Context())
	if record.UserID != sess.UserID {
		respondError(w, http.StatusForbidden, "not your generation")
		return nil
	}
	return record
}
