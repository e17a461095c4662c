package domain

import (
	"fmt"
	"time"
)

// Frame is one contiguous interval of work on an activity. A frame without a
// stop time is active; there is at most one active frame at a time, which is
// enforced by the frame repository.
type Frame struct {
	UUID         Identifier
	StartTime    time.Time
	StopTime     *time.Time
	Activity     Activity
	IsIndividual bool
	Role         *Role
	Description  string
	UpdatedAt    time.Time
}

// FrameParams are the inputs of NewFrame. A zero UUID gets a fresh
// identifier and a zero UpdatedAt defaults to the start time.
type FrameParams struct {
	UUID         Identifier
	StartTime    time.Time
	StopTime     *time.Time
	Activity     Activity
	IsIndividual bool
	Role         *Role
	Description  string
	UpdatedAt    time.Time
}

// NewFrame builds a validated frame with all times in UTC, truncated to the second.
func NewFrame(p FrameParams) (Frame, error) {
	id := NewIdentifier()
	if p.UUID != "" {
		parsed, err := ParseIdentifier(string(p.UUID))
		if err != nil {
			return Frame{}, err
		}
		id = parsed
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = p.StartTime
	}
	f := Frame{
		UUID:         id,
		StartTime:    NormalizeTime(p.StartTime),
		StopTime:     normalizeTimePtr(p.StopTime),
		Activity:     p.Activity,
		IsIndividual: p.IsIndividual,
		Role:         copyRole(p.Role),
		Description:  p.Description,
		UpdatedAt:    NormalizeTime(updated),
	}
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Validate checks the frame invariants.
func (f Frame) Validate() error {
	if _, err := ParseIdentifier(string(f.UUID)); err != nil {
		return err
	}
	if f.StartTime.IsZero() {
		return fmt.Errorf("%w: frame %s has no start time", ErrValidation, f.UUID)
	}
	if err := f.Activity.Validate(); err != nil {
		return err
	}
	if err := checkRoleXorIndividual(f.Role, f.IsIndividual); err != nil {
		return err
	}
	if f.StopTime != nil && f.StopTime.Before(f.StartTime) {
		return fmt.Errorf("%w: frame %s stops (%s) before it starts (%s)", ErrInvalidTime, f.UUID,
			f.StopTime.Format(time.RFC3339), f.StartTime.Format(time.RFC3339))
	}
	return nil
}

func (f Frame) IsActive() bool {
	return f.StopTime == nil
}

// Duration is stop minus start, using now for an active frame.
func (f Frame) Duration(now time.Time) time.Duration {
	end := now
	if f.StopTime != nil {
		end = *f.StopTime
	}
	if end.Before(f.StartTime) {
		return 0
	}
	return end.Sub(f.StartTime)
}

// IssueKeys returns the issue keys mentioned in the description, repetitions included.
func (f Frame) IssueKeys() []string {
	return ExtractIssueKeys(f.Description)
}

// UniqueIssueKeys returns the issue keys without repetitions.
func (f Frame) UniqueIssueKeys() []string {
	return UniqueIssueKeys(f.IssueKeys())
}

// Stop returns a completed copy of an active frame.
func (f Frame) Stop(at time.Time) (Frame, error) {
	if !f.IsActive() {
		return Frame{}, fmt.Errorf("%w: frame %s is already stopped", ErrActiveFrame, f.UUID)
	}
	stop := NormalizeTime(at)
	return f.rebuild(func(p *FrameParams) {
		p.StopTime = &stop
		p.UpdatedAt = stop
	})
}

// WithDescription returns a copy with a new description.
func (f Frame) WithDescription(description string, now time.Time) (Frame, error) {
	return f.rebuild(func(p *FrameParams) {
		p.Description = description
		p.UpdatedAt = now
	})
}

// WithTimes returns a copy with new start and stop times.
func (f Frame) WithTimes(start time.Time, stop *time.Time, now time.Time) (Frame, error) {
	return f.rebuild(func(p *FrameParams) {
		p.StartTime = start
		p.StopTime = stop
		p.UpdatedAt = now
	})
}

func (f Frame) params() FrameParams {
	return FrameParams{
		UUID:         f.UUID,
		StartTime:    f.StartTime,
		StopTime:     f.StopTime,
		Activity:     f.Activity,
		IsIndividual: f.IsIndividual,
		Role:         f.Role,
		Description:  f.Description,
		UpdatedAt:    f.UpdatedAt,
	}
}

func (f Frame) rebuild(change func(*FrameParams)) (Frame, error) {
	p := f.params()
	change(&p)
	return NewFrame(p)
}

// NormalizeTime converts t to UTC and drops sub-second precision.
func NormalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Second)
}

func normalizeTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := NormalizeTime(*t)
	return &n
}

func copyRole(r *Role) *Role {
	if r == nil {
		return nil
	}
	c := *r
	if r.ParentID != nil {
		parent := *r.ParentID
		c.ParentID = &parent
	}
	return &c
}

func checkRoleXorIndividual(role *Role, individual bool) error {
	switch {
	case role != nil && individual:
		return fmt.Errorf("%w: a role cannot be set on an individual action", ErrValidation)
	case role == nil && !individual:
		return fmt.Errorf("%w: either a role or the individual flag is required", ErrValidation)
	}
	return nil
}
