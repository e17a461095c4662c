// Package engine holds the tracker's use cases: the start/stop state machine,
// timesheet synchronization with Zebra, timesheet building and reports.
package engine

import (
	"context"
	"fmt"
	"time"

	"zebracli/internal/domain"
	"zebracli/internal/events"
	"zebracli/internal/repo"
)

// Recorder receives a journal entry for every state change.
type Recorder interface {
	Append(ctx context.Context, evtType, entityKind, entityID string, payload events.EventPayload) error
}

// DefaultRoleProvider supplies the role used when a frame is given none.
type DefaultRoleProvider interface {
	DefaultRole(ctx context.Context) (*domain.Role, error)
}

// Track is the start/stop state machine. It is Idle without a current frame
// and Running with one; Add inserts completed frames in either state.
type Track struct {
	Frames   *repo.Frames
	Roles    DefaultRoleProvider
	Recorder Recorder
	Now      func() time.Time
}

type StartOptions struct {
	Description string
	// StartTime defaults to now, or to the latest stop when NoGap is set.
	StartTime    *time.Time
	NoGap        bool
	IsIndividual bool
	Role         *domain.Role
}

type AddOptions struct {
	Description  string
	IsIndividual bool
	Role         *domain.Role
}

func (t Track) now() time.Time {
	if t.Now != nil {
		return t.Now().UTC()
	}
	return time.Now().UTC()
}

// Start begins a frame on activity.
func (t Track) Start(ctx context.Context, activity domain.Activity, opts StartOptions) (domain.Frame, error) {
	cur, err := t.Frames.GetCurrent(ctx)
	if err != nil {
		return domain.Frame{}, err
	}
	if cur != nil {
		return domain.Frame{}, fmt.Errorf("%w: %s on %s since %s", domain.ErrFrameAlreadyStarted,
			cur.UUID, cur.Activity.Name, cur.StartTime.Format(time.RFC3339))
	}
	now := t.now()
	latest, err := t.latestStop(ctx, now)
	if err != nil {
		return domain.Frame{}, err
	}

	start := now
	switch {
	case opts.StartTime != nil:
		start = domain.NormalizeTime(*opts.StartTime)
		if !opts.NoGap && latest != nil && start.Before(*latest) {
			return domain.Frame{}, fmt.Errorf("%w: start %s overlaps the previous frame, which stopped at %s",
				domain.ErrInvalidTime, start.Format(time.RFC3339), latest.Format(time.RFC3339))
		}
	case opts.NoGap && latest != nil:
		start = *latest
	}
	if start.After(now) {
		return domain.Frame{}, fmt.Errorf("%w: start %s is in the future", domain.ErrInvalidTime, start.Format(time.RFC3339))
	}

	role, err := t.resolveRole(ctx, opts.IsIndividual, opts.Role)
	if err != nil {
		return domain.Frame{}, err
	}
	f, err := domain.NewFrame(domain.FrameParams{
		StartTime:    start,
		Activity:     activity,
		IsIndividual: opts.IsIndividual,
		Role:         role,
		Description:  opts.Description,
		UpdatedAt:    now,
	})
	if err != nil {
		return domain.Frame{}, err
	}
	if err := t.Frames.SaveCurrent(ctx, f); err != nil {
		return domain.Frame{}, err
	}
	t.record(ctx, "frame.start", f, events.EventPayload{"activity": activity.Key.String(), "start": f.StartTime.Format(time.RFC3339)})
	return f, nil
}

// Stop completes the current frame at stop, or now.
func (t Track) Stop(ctx context.Context, stop *time.Time) (domain.Frame, error) {
	cur, err := t.Frames.GetCurrent(ctx)
	if err != nil {
		return domain.Frame{}, err
	}
	if cur == nil {
		return domain.Frame{}, domain.ErrNoFrameStarted
	}
	if stop != nil {
		at := domain.NormalizeTime(*stop)
		if at.After(t.now()) {
			return domain.Frame{}, fmt.Errorf("%w: stop %s is in the future", domain.ErrInvalidTime, at.Format(time.RFC3339))
		}
		if at.Before(cur.StartTime) {
			return domain.Frame{}, fmt.Errorf("%w: stop %s is before the start %s", domain.ErrInvalidTime,
				at.Format(time.RFC3339), cur.StartTime.Format(time.RFC3339))
		}
		stop = &at
	}
	f, err := t.Frames.CompleteCurrent(ctx, stop)
	if err != nil {
		return domain.Frame{}, err
	}
	t.record(ctx, "frame.stop", f, events.EventPayload{"stop": f.StopTime.Format(time.RFC3339)})
	return f, nil
}

// Add stores a completed frame without touching the current one.
func (t Track) Add(ctx context.Context, activity domain.Activity, from, to time.Time, opts AddOptions) (domain.Frame, error) {
	if from.After(to) {
		return domain.Frame{}, fmt.Errorf("%w: from %s is after to %s", domain.ErrInvalidTime,
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	role, err := t.resolveRole(ctx, opts.IsIndividual, opts.Role)
	if err != nil {
		return domain.Frame{}, err
	}
	f, err := domain.NewFrame(domain.FrameParams{
		StartTime:    from,
		StopTime:     &to,
		Activity:     activity,
		IsIndividual: opts.IsIndividual,
		Role:         role,
		Description:  opts.Description,
		UpdatedAt:    t.now(),
	})
	if err != nil {
		return domain.Frame{}, err
	}
	if err := t.Frames.Save(ctx, f); err != nil {
		return domain.Frame{}, err
	}
	t.record(ctx, "frame.add", f, events.EventPayload{"activity": activity.Key.String()})
	return f, nil
}

// Cancel discards the current frame and returns it.
func (t Track) Cancel(ctx context.Context) (domain.Frame, error) {
	cur, err := t.Frames.GetCurrent(ctx)
	if err != nil {
		return domain.Frame{}, err
	}
	if cur == nil {
		// The slot may still hold an unreadable record.
		if err := t.Frames.ClearCurrent(ctx); err != nil {
			return domain.Frame{}, err
		}
		return domain.Frame{}, domain.ErrNoFrameStarted
	}
	if err := t.Frames.ClearCurrent(ctx); err != nil {
		return domain.Frame{}, err
	}
	t.record(ctx, "frame.cancel", *cur, nil)
	return *cur, nil
}

func (t Track) IsStarted(ctx context.Context) (bool, error) {
	cur, err := t.Frames.GetCurrent(ctx)
	return cur != nil, err
}

func (t Track) Current(ctx context.Context) (*domain.Frame, error) {
	return t.Frames.GetCurrent(ctx)
}

// latestStop is the latest stop time among completed frames, ignoring stops after now.
func (t Track) latestStop(ctx context.Context, now time.Time) (*time.Time, error) {
	frames, err := t.Frames.All(ctx)
	if err != nil {
		return nil, err
	}
	var latest *time.Time
	for _, f := range frames {
		if f.StopTime == nil || f.StopTime.After(now) {
			continue
		}
		if latest == nil || f.StopTime.After(*latest) {
			stop := *f.StopTime
			latest = &stop
		}
	}
	return latest, nil
}

func (t Track) resolveRole(ctx context.Context, individual bool, role *domain.Role) (*domain.Role, error) {
	if individual || role != nil {
		return role, nil
	}
	if t.Roles == nil {
		return nil, fmt.Errorf("%w: no role given and no default role available", domain.ErrValidation)
	}
	def, err := t.Roles.DefaultRole(ctx)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("%w: no role given and no default role set (see `zebra user role`)", domain.ErrValidation)
	}
	return def, nil
}

func (t Track) record(ctx context.Context, typ string, f domain.Frame, payload events.EventPayload) {
	if t.Recorder == nil {
		return
	}
	if err := t.Recorder.Append(ctx, typ, "frame", f.UUID.Hex(), payload); err != nil {
		logf(t.Frames.Logger, "record %s: %v", typ, err)
	}
}
