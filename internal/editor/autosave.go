// Package editor hosts the autosave controller that sits between the
// in-memory document model and the template store. Local mutations apply
// immediately (optimistic); persistence is debounced so a burst of edits
// coalesces into a single write.
package editor

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"certstudio/internal/design"
	"certstudio/internal/models"
)

// DefaultDebounce is the quiet period after the last edit before a write
// is issued.
const DefaultDebounce = 2 * time.Second

// Saver persists a template and returns the server-confirmed record,
// which the controller adopts as the new canonical snapshot.
type Saver interface {
	Save(ctx context.Context, t *models.Template) (*models.Template, error)
}

// Status reports the controller's sync state for the UI.
type Status struct {
	Dirty     bool
	LastSaved time.Time
	LastError error
}

// Autosaver debounces template writes. All local mutation goes through
// Apply, which updates the optimistic state and (re)arms the debounce
// timer; when the timer fires the current state is compared against the
// last persisted snapshot and written only if it differs.
//
// A failed write never rolls back local state: the controller stays
// dirty and retries on the next timer firing.
type Autosaver struct {
	mu        sync.Mutex
	saver     Saver
	delay     time.Duration
	timer     *time.Timer
	doc       *design.Document
	current   models.Template // optimistic, authoritative for rendering
	persisted []byte          // JSON snapshot of the last server-confirmed record
	status    Status
	closed    bool
}

// New creates an Autosaver for the given template. delay <= 0 uses
// DefaultDebounce.
func New(saver Saver, tmpl *models.Template, delay time.Duration) *Autosaver {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	a := &Autosaver{
		saver:   saver,
		delay:   delay,
		doc:     design.New(tmpl.Design),
		current: *tmpl,
	}
	a.current.Design = a.doc.Data()
	a.persisted = snapshot(&a.current)
	return a
}

// Apply runs a mutation against the document, stamps the update time,
// and schedules a debounced write. The mutation sees the live document;
// returning from Apply the new state is already visible to Template().
func (a *Autosaver) Apply(mutate func(doc *design.Document)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	mutate(a.doc)
	a.current.Design = a.doc.Data()
	a.current.UpdatedAt = time.Now()
	a.schedule()
}

// SetMeta updates the template's name, description, and visibility flag
// through the same debounced path as design edits.
func (a *Autosaver) SetMeta(name, description string, isPublic bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	a.current.Name = name
	a.current.Description = description
	a.current.IsPublic = isPublic
	a.current.UpdatedAt = time.Now()
	a.schedule()
}

// Template returns the current optimistic state.
func (a *Autosaver) Template() models.Template {
	a.mu.Lock()
	defer a.mu.Unlock()
	t := a.current
	t.Design = a.doc.Data()
	return t
}

// Status returns the current sync status.
func (a *Autosaver) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Flush writes any unsaved changes immediately, bypassing the debounce.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopTimer()
	return a.flushLocked(ctx)
}

// Close flushes pending changes and stops the controller. Further Apply
// calls are ignored.
func (a *Autosaver) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.stopTimer()
	return a.flushLocked(ctx)
}

// schedule arms (or re-arms) the single-shot debounce timer. Callers
// hold a.mu.
func (a *Autosaver) schedule() {
	a.status.Dirty = true
	a.stopTimer()
	a.timer = time.AfterFunc(a.delay, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.closed {
			return
		}
		if err := a.flushLocked(context.Background()); err != nil {
			slog.Error("autosave failed", "template_id", a.current.ID, "error", err)
		}
	})
}

func (a *Autosaver) stopTimer() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// flushLocked persists the current state if it differs from the last
// persisted snapshot. Callers hold a.mu.
func (a *Autosaver) flushLocked(ctx context.Context) error {
	a.current.Design = a.doc.Data()
	now := snapshot(&a.current)
	if string(now) == string(a.persisted) {
		a.status.Dirty = false
		return nil
	}

	t := a.current
	saved, err := a.saver.Save(ctx, &t)
	if err != nil {
		// Keep optimistic state; stay dirty and surface the error.
		a.status.Dirty = true
		a.status.LastError = err
		return err
	}

	// Adopt the server-returned record to pick up server-assigned fields.
	a.current = *saved
	a.doc = design.New(saved.Design)
	a.persisted = snapshot(&a.current)
	a.status = Status{Dirty: false, LastSaved: time.Now()}
	return nil
}

// snapshot serializes the save-relevant fields for change detection.
// Server-managed timestamps are excluded so touching UpdatedAt alone
// never triggers a write.
func snapshot(t *models.Template) []byte {
	b, _ := json.Marshal(struct {
		Name        string            `json:"name"`
		Description string            `json:"description"`
		IsPublic    bool              `json:"is_public"`
		Design      models.DesignData `json:"design"`
	}{t.Name, t.Description, t.IsPublic, t.Design})
	return b
}
