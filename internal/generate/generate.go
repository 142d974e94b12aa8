// Package generate implements the batch certificate generation pipeline:
// recipient rows are partitioned into fixed-size batches and rendered
// sequentially against a template through a format-specific backend
// (PDF, DOCX, or PPTX), with per-certificate progress reporting.
package generate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"certstudio/internal/metrics"
	"certstudio/internal/models"
)

// Format selects the output document backend.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatPPTX Format = "pptx"
)

// Batch size bounds exposed in generation settings.
const (
	DefaultBatchSize = 10
	MinBatchSize     = 1
	MaxBatchSize     = 100
)

// Quality carries the generation quality knobs.
type Quality struct {
	DPI          int     `json:"dpi"`
	ImageQuality float64 `json:"image_quality"`
	FontQuality  string  `json:"font_quality"` // "normal" or "high"
}

// DefaultQuality matches the generator's defaults.
func DefaultQuality() Quality {
	return Quality{DPI: 300, ImageQuality: 0.92, FontQuality: "normal"}
}

// Progress is reported after each single certificate is produced.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Status  string `json:"status"`
}

// Percent returns the rounded completion percentage.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return int(float64(p.Current)/float64(p.Total)*100 + 0.5)
}

// Options configures one pipeline run.
type Options struct {
	Format    Format
	BatchSize int
	Quality   Quality

	// ContinueOnError switches the pipeline from its fail-fast default
	// to per-row failure collection: failed rows are recorded in the
	// result and generation continues.
	ContinueOnError bool

	OnProgress func(Progress)
}

// Blob is one generated output document.
type Blob struct {
	Data        []byte
	ContentType string
	Filename    string
}

// RowFailure records a per-row error when ContinueOnError is set.
type RowFailure struct {
	Index int
	Err   error
}

// Result is a completed pipeline run. Blobs is ordered index-for-index
// with the input rows; with ContinueOnError, failed indices hold a
// zero-valued Blob and appear in Failed.
type Result struct {
	Blobs  []Blob
	Failed []RowFailure
}

// Backend renders one certificate layout into a document.
type Backend interface {
	Render(l *Layout, q Quality) ([]byte, error)
	ContentType() string
	Extension() string
}

// Pipeline dispatches certificate generation to per-format backends.
type Pipeline struct {
	backends map[Format]Backend
	images   ImageSource
}

// NewPipeline returns a pipeline with the three standard backends and an
// HTTP image source.
func NewPipeline() *Pipeline {
	return &Pipeline{
		backends: map[Format]Backend{
			FormatPDF:  &PDFBackend{},
			FormatDOCX: &DOCXBackend{},
			FormatPPTX: &PPTXBackend{},
		},
		images: NewHTTPImageSource(),
	}
}

// WithImageSource overrides the image fetcher (used by tests).
func (p *Pipeline) WithImageSource(src ImageSource) *Pipeline {
	p.images = src
	return p
}

// Run generates one certificate per recipient row. Rows are processed in
// fixed-size batches, strictly sequentially within and across batches.
// The default contract is fail-fast: the first error aborts the run and
// no partial results are returned. Cancelling ctx aborts between
// certificates.
func (p *Pipeline) Run(ctx context.Context, tmpl *models.Template, rows []models.RecipientRow, opts Options) (*Result, error) {
	backend, ok := p.backends[opts.Format]
	if !ok {
		return nil, fmt.Errorf("generate: unsupported format %q", opts.Format)
	}

	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize < MinBatchSize || batchSize > MaxBatchSize {
		return nil, fmt.Errorf("generate: batch size %d out of range [%d,%d]", batchSize, MinBatchSize, MaxBatchSize)
	}
	quality := opts.Quality
	if quality == (Quality{}) {
		quality = DefaultQuality()
	}

	total := len(rows)
	result := &Result{Blobs: make([]Blob, total)}
	processed := 0

	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}

		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("generate: cancelled after %d of %d: %w", processed, total, err)
			}

			blob, err := p.renderOne(ctx, backend, tmpl, rows[i], quality)
			if err != nil {
				metrics.CertificatesFailed.WithLabelValues(string(opts.Format)).Inc()
				if opts.ContinueOnError {
					result.Failed = append(result.Failed, RowFailure{Index: i, Err: err})
				} else {
					metrics.BatchRuns.WithLabelValues(string(opts.Format), "failed").Inc()
					return nil, fmt.Errorf("generate: recipient %d of %d: %w", i+1, total, err)
				}
			} else {
				result.Blobs[i] = blob
				metrics.CertificatesGenerated.WithLabelValues(string(opts.Format)).Inc()
			}
			processed++

			if opts.OnProgress != nil {
				opts.OnProgress(Progress{
					Current: processed,
					Total:   total,
					Status:  fmt.Sprintf("Generating certificate %d of %d", processed, total),
				})
			}
		}
	}

	status := "completed"
	if len(result.Failed) > 0 {
		status = "partial"
	}
	metrics.BatchRuns.WithLabelValues(string(opts.Format), status).Inc()

	return result, nil
}

func (p *Pipeline) renderOne(ctx context.Context, backend Backend, tmpl *models.Template, row models.RecipientRow, q Quality) (Blob, error) {
	start := time.Now()
	layout := BuildLayout(ctx, tmpl, row, p.images)
	data, err := backend.Render(layout, q)
	if err != nil {
		return Blob{}, err
	}
	metrics.GenerationDuration.WithLabelValues(backend.Extension()).Observe(time.Since(start).Seconds())

	return Blob{
		Data:        data,
		ContentType: backend.ContentType(),
		Filename:    Filename(layout.RecipientName, backend.Extension()),
	}, nil
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9._ -]+`)

// Filename derives the download filename from the recipient's name and
// the output format's extension.
func Filename(recipient, ext string) string {
	name := unsafeFilename.ReplaceAllString(strings.TrimSpace(recipient), "")
	name = strings.TrimSpace(name)
	if name == "" {
		name = "certificate"
	}
	return name + "." + ext
}

// HTTPImageSource fetches image element content over HTTP with a bounded
// body size.
type HTTPImageSource struct {
	client  *http.Client
	maxSize int64
}

// NewHTTPImageSource returns an image source with a 15s timeout and a
// 20 MB body cap.
func NewHTTPImageSource() *HTTPImageSource {
	return &HTTPImageSource{
		client:  &http.Client{Timeout: 15 * time.Second},
		maxSize: 20 << 20,
	}
}

// Fetch downloads the image at url.
func (s *HTTPImageSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("image fetch: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxSize))
	if err != nil {
		return nil, fmt.Errorf("image fetch %s: read: %w", url, err)
	}
	return data, nil
}
