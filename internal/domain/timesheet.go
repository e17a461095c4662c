package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar-day format used by Zebra and the local store.
const DateLayout = "2006-01-02"

// Timesheet is the Zebra-facing record of logged time. It is derived from one
// or more frames, listed in FrameUUIDs, which never leave the local store.
type Timesheet struct {
	UUID              Identifier
	Activity          Activity
	Description       string
	ClientDescription string
	// Time is in decimal hours, a multiple of 0.25.
	Time             float64
	Date             time.Time
	Role             *Role
	IndividualAction bool
	FrameUUIDs       []Identifier
	ZebraID          *int
	UpdatedAt        time.Time
	DoNotSync        bool
}

type TimesheetParams struct {
	UUID              Identifier
	Activity          Activity
	Description       string
	ClientDescription string
	Time              float64
	Date              time.Time
	Role              *Role
	IndividualAction  bool
	FrameUUIDs        []Identifier
	ZebraID           *int
	UpdatedAt         time.Time
	DoNotSync         bool
}

// NewTimesheet builds a validated timesheet. A zero UUID gets a fresh identifier.
func NewTimesheet(p TimesheetParams) (Timesheet, error) {
	id := NewIdentifier()
	if p.UUID != "" {
		parsed, err := ParseIdentifier(string(p.UUID))
		if err != nil {
			return Timesheet{}, err
		}
		id = parsed
	}
	frames := make([]Identifier, len(p.FrameUUIDs))
	copy(frames, p.FrameUUIDs)
	var zebraID *int
	if p.ZebraID != nil {
		v := *p.ZebraID
		zebraID = &v
	}
	ts := Timesheet{
		UUID:              id,
		Activity:          p.Activity,
		Description:       p.Description,
		ClientDescription: p.ClientDescription,
		Time:              p.Time,
		Date:              NormalizeDate(p.Date),
		Role:              copyRole(p.Role),
		IndividualAction:  p.IndividualAction,
		FrameUUIDs:        frames,
		ZebraID:           zebraID,
		UpdatedAt:         NormalizeTime(p.UpdatedAt),
		DoNotSync:         p.DoNotSync,
	}
	if err := ts.Validate(); err != nil {
		return Timesheet{}, err
	}
	return ts, nil
}

// Validate checks the timesheet invariants.
func (t Timesheet) Validate() error {
	if _, err := ParseIdentifier(string(t.UUID)); err != nil {
		return err
	}
	if err := t.Activity.Validate(); err != nil {
		return err
	}
	if !t.Activity.Key.IsRemote() || !t.Activity.ProjectKey.IsRemote() {
		return fmt.Errorf("%w: timesheet %s must use a zebra activity, got %s key %s",
			ErrValidation, t.UUID, t.Activity.Key.Source(), t.Activity.Key)
	}
	if t.Time < 0 {
		return fmt.Errorf("%w: timesheet time %.2f is negative", ErrValidation, t.Time)
	}
	if !isQuarter(t.Time) {
		return fmt.Errorf("%w: timesheet time %.4f is not a multiple of 0.25", ErrValidation, t.Time)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: timesheet %s has no date", ErrValidation, t.UUID)
	}
	return checkRoleXorIndividual(t.Role, t.IndividualAction)
}

func (t Timesheet) ProjectKey() EntityKey {
	return t.Activity.ProjectKey
}

// IsPushed reports whether the timesheet has a Zebra counterpart.
func (t Timesheet) IsPushed() bool {
	return t.ZebraID != nil
}

// MergeRemote takes everything Zebra owns from remote and keeps the local
// UUID, FrameUUIDs and DoNotSync flag.
func (t Timesheet) MergeRemote(remote Timesheet) (Timesheet, error) {
	return NewTimesheet(TimesheetParams{
		UUID:              t.UUID,
		Activity:          remote.Activity,
		Description:       remote.Description,
		ClientDescription: remote.ClientDescription,
		Time:              remote.Time,
		Date:              remote.Date,
		Role:              remote.Role,
		IndividualAction:  remote.IndividualAction,
		FrameUUIDs:        t.FrameUUIDs,
		ZebraID:           remote.ZebraID,
		UpdatedAt:         remote.UpdatedAt,
		DoNotSync:         t.DoNotSync,
	})
}

// HasFrame reports whether the frame contributed to this timesheet.
func (t Timesheet) HasFrame(id Identifier) bool {
	for _, f := range t.FrameUUIDs {
		if f == id {
			return true
		}
	}
	return false
}

// RoundQuarterHours rounds d to the nearest quarter hour, in hours.
func RoundQuarterHours(d time.Duration) float64 {
	return math.Round(d.Hours()*4) / 4
}

// NormalizeDate keeps the calendar day of t, as seen in t's location, at midnight UTC.
func NormalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a calendar day in DateLayout.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return d, nil
}

func isQuarter(v float64) bool {
	q := v * 4
	return math.Abs(q-math.Round(q)) < 1e-9
}
