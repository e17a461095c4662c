package repo

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"zebracli/internal/domain"
	"zebracli/internal/store"
)

const currentFrameKey = "current"

// Frames stores completed frames and the single current frame slot.
type Frames struct {
	Completed store.Store
	Current   store.Store
	Now       func() time.Time
	Logger    *log.Logger
}

func NewFrames(b store.Backend) *Frames {
	return &Frames{
		Completed: b.Collection(store.Frames),
		Current:   b.Collection(store.CurrentFrame),
	}
}

func (r *Frames) now() time.Time {
	return nowOr(r.Now)
}

// Save stores a completed frame, replacing any frame with the same uuid.
func (r *Frames) Save(ctx context.Context, f domain.Frame) error {
	if f.IsActive() {
		return fmt.Errorf("%w: frame %s has no stop time and cannot be saved as completed", domain.ErrActiveFrame, f.UUID)
	}
	if err := f.Validate(); err != nil {
		return err
	}
	doc, err := r.Completed.Read(ctx)
	if err != nil {
		return err
	}
	raw, err := marshalFrame(f)
	if err != nil {
		return err
	}
	doc[f.UUID.Hex()] = raw
	return r.Completed.Write(ctx, doc)
}

// SaveCurrent stores the running frame. Saving the same frame twice is allowed.
func (r *Frames) SaveCurrent(ctx context.Context, f domain.Frame) error {
	if !f.IsActive() {
		return fmt.Errorf("%w: frame %s is stopped and cannot be the current frame", domain.ErrActiveFrame, f.UUID)
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if f.StartTime.After(r.now()) {
		return fmt.Errorf("%w: frame %s starts in the future (%s)", domain.ErrInvalidTime, f.UUID, f.StartTime.Format(time.RFC3339))
	}
	cur, err := r.GetCurrent(ctx)
	if err != nil {
		return err
	}
	if cur != nil && cur.UUID != f.UUID {
		return fmt.Errorf("%w: %s is running", domain.ErrCurrentFrameExists, cur.UUID)
	}
	raw, err := marshalFrame(f)
	if err != nil {
		return err
	}
	return r.Current.Write(ctx, store.Document{currentFrameKey: raw})
}

// GetCurrent returns the running frame, or nil when idle. An unreadable
// record is logged and read as idle.
func (r *Frames) GetCurrent(ctx context.Context) (*domain.Frame, error) {
	doc, err := r.Current.Read(ctx)
	if err != nil {
		return nil, err
	}
	raw, ok := doc[currentFrameKey]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	f, err := decodeFrame(raw)
	if err != nil {
		loggerOr(r.Logger).Printf("ignoring unreadable current frame: %v", err)
		return nil, nil
	}
	return &f, nil
}

// CompleteCurrent stops the running frame at stop, or now when stop is nil,
// moves it to the completed frames and clears the slot.
func (r *Frames) CompleteCurrent(ctx context.Context, stop *time.Time) (domain.Frame, error) {
	cur, err := r.GetCurrent(ctx)
	if err != nil {
		return domain.Frame{}, err
	}
	if cur == nil {
		return domain.Frame{}, domain.ErrNoFrameStarted
	}
	now := r.now()
	at := now
	if stop != nil {
		if stop.After(now) {
			return domain.Frame{}, fmt.Errorf("%w: stop time %s is in the future", domain.ErrInvalidTime, stop.Format(time.RFC3339))
		}
		at = *stop
	}
	completed, err := cur.Stop(at)
	if err != nil {
		return domain.Frame{}, err
	}
	if err := r.Save(ctx, completed); err != nil {
		return domain.Frame{}, err
	}
	if err := r.ClearCurrent(ctx); err != nil {
		return domain.Frame{}, err
	}
	return completed, nil
}

func (r *Frames) ClearCurrent(ctx context.Context) error {
	return r.Current.Write(ctx, store.Document{})
}

// All returns completed frames ordered by start time. Records that no longer
// decode are logged and skipped.
func (r *Frames) All(ctx context.Context) ([]domain.Frame, error) {
	doc, err := r.Completed.Read(ctx)
	if err != nil {
		return nil, err
	}
	logger := loggerOr(r.Logger)
	frames := make([]domain.Frame, 0, len(doc))
	for key, raw := range doc {
		f, err := decodeFrame(raw)
		if err != nil {
			logger.Printf("skipping frame %s: %v", key, err)
			continue
		}
		frames = append(frames, f)
	}
	sortFrames(frames)
	return frames, nil
}

// Get looks a frame up in the completed frames, then in the current slot.
func (r *Frames) Get(ctx context.Context, id domain.Identifier) (domain.Frame, error) {
	doc, err := r.Completed.Read(ctx)
	if err != nil {
		return domain.Frame{}, err
	}
	if raw, ok := doc[id.Hex()]; ok {
		f, err := decodeFrame(raw)
		if err != nil {
			return domain.Frame{}, fmt.Errorf("%w: frame %s: %v", ErrNotFound, id, err)
		}
		return f, nil
	}
	cur, err := r.GetCurrent(ctx)
	if err != nil {
		return domain.Frame{}, err
	}
	if cur != nil && cur.UUID == id {
		return *cur, nil
	}
	return domain.Frame{}, fmt.Errorf("%w: frame %s", ErrNotFound, id)
}

// Update replaces an existing frame. The current slot is patched when it
// holds the same uuid.
func (r *Frames) Update(ctx context.Context, f domain.Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	doc, err := r.Completed.Read(ctx)
	if err != nil {
		return err
	}
	if _, ok := doc[f.UUID.Hex()]; ok {
		if f.IsActive() {
			return fmt.Errorf("%w: completed frame %s cannot lose its stop time", domain.ErrActiveFrame, f.UUID)
		}
		raw, err := marshalFrame(f)
		if err != nil {
			return err
		}
		doc[f.UUID.Hex()] = raw
		return r.Completed.Write(ctx, doc)
	}
	cur, err := r.GetCurrent(ctx)
	if err != nil {
		return err
	}
	if cur == nil || cur.UUID != f.UUID {
		return fmt.Errorf("%w: frame %s", ErrNotFound, f.UUID)
	}
	if !f.IsActive() {
		return fmt.Errorf("%w: use stop to complete the current frame %s", domain.ErrActiveFrame, f.UUID)
	}
	if f.StartTime.After(r.now()) {
		return fmt.Errorf("%w: frame %s starts in the future", domain.ErrInvalidTime, f.UUID)
	}
	raw, err := marshalFrame(f)
	if err != nil {
		return err
	}
	return r.Current.Write(ctx, store.Document{currentFrameKey: raw})
}

// Remove deletes a frame, clearing the current slot when it holds it.
func (r *Frames) Remove(ctx context.Context, id domain.Identifier) error {
	doc, err := r.Completed.Read(ctx)
	if err != nil {
		return err
	}
	found := false
	if _, ok := doc[id.Hex()]; ok {
		delete(doc, id.Hex())
		if err := r.Completed.Write(ctx, doc); err != nil {
			return err
		}
		found = true
	}
	cur, err := r.GetCurrent(ctx)
	if err != nil {
		return err
	}
	if cur != nil && cur.UUID == id {
		if err := r.ClearCurrent(ctx); err != nil {
			return err
		}
		found = true
	}
	if !found {
		return fmt.Errorf("%w: frame %s", ErrNotFound, id)
	}
	return nil
}

// FrameFilter selects completed frames. Empty fields do not filter.
// Without IncludePartialFrames a frame must lie inside [From, To]; with it,
// overlapping the interval is enough.
type FrameFilter struct {
	ProjectKeys          []domain.EntityKey
	IgnoreProjectKeys    []domain.EntityKey
	IssueKeys            []string
	IgnoreIssueKeys      []string
	From                 *time.Time
	To                   *time.Time
	IncludePartialFrames bool
}

func (ff FrameFilter) Match(f domain.Frame) bool {
	if len(ff.ProjectKeys) > 0 && !containsKey(ff.ProjectKeys, f.Activity.ProjectKey) {
		return false
	}
	if containsKey(ff.IgnoreProjectKeys, f.Activity.ProjectKey) {
		return false
	}
	keys := f.UniqueIssueKeys()
	if len(ff.IssueKeys) > 0 && !intersects(ff.IssueKeys, keys) {
		return false
	}
	if intersects(ff.IgnoreIssueKeys, keys) {
		return false
	}
	return ff.matchInterval(f)
}

func (ff FrameFilter) matchInterval(f domain.Frame) bool {
	start := f.StartTime
	stop := start
	if f.StopTime != nil {
		stop = *f.StopTime
	}
	if ff.IncludePartialFrames {
		if ff.From != nil && !stop.After(*ff.From) {
			return false
		}
		if ff.To != nil && !start.Before(*ff.To) {
			return false
		}
		return true
	}
	if ff.From != nil && start.Before(*ff.From) {
		return false
	}
	if ff.To != nil && stop.After(*ff.To) {
		return false
	}
	return true
}

// GetByDateRange returns completed frames inside [from, to]; nil bounds are open.
func (r *Frames) GetByDateRange(ctx context.Context, from, to *time.Time) ([]domain.Frame, error) {
	return r.Filter(ctx, FrameFilter{From: from, To: to})
}

func (r *Frames) Filter(ctx context.Context, ff FrameFilter) ([]domain.Frame, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, f := range all {
		if ff.Match(f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// LastUsedRoleForActivity returns the role of the latest completed frame on
// the activity, or nil. Individual frames count and yield nil.
func (r *Frames) LastUsedRoleForActivity(ctx context.Context, activity domain.Activity) (*domain.Role, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Activity.Key == activity.Key {
			return all[i].Role, nil
		}
	}
	return nil, nil
}

// LastActivityForIssueKeys returns the activity of the latest completed frame
// whose issue keys are exactly keys, in any order.
func (r *Frames) LastActivityForIssueKeys(ctx context.Context, keys []string) (*domain.Activity, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		if domain.SameIssueKeySet(all[i].IssueKeys(), keys) {
			a := all[i].Activity
			return &a, nil
		}
	}
	return nil, nil
}

func sortFrames(frames []domain.Frame) {
	sort.Slice(frames, func(i, j int) bool {
		if frames[i].StartTime.Equal(frames[j].StartTime) {
			return frames[i].UUID < frames[j].UUID
		}
		return frames[i].StartTime.Before(frames[j].StartTime)
	})
}

func containsKey(keys []domain.EntityKey, k domain.EntityKey) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
