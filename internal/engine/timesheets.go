package engine

import (
	"context"
	"time"

	"zebracli/internal/domain"
	"zebracli/internal/repo"
)

// TimesheetBuilder turns completed frames into local timesheets, one per day,
// activity, role and description.
type TimesheetBuilder struct {
	Frames     *repo.Frames
	Timesheets *repo.Timesheets
	// Location decides which calendar day a frame belongs to.
	Location *time.Location
	Now      func() time.Time
}

type timesheetGroup struct {
	day         string
	activity    domain.EntityKey
	roleID      int
	individual  bool
	description string
}

// Build returns the timesheets FromFrames would create, without saving them.
// Frames on local projects or already part of a timesheet are ignored.
func (b TimesheetBuilder) Build(ctx context.Context, from, to time.Time) ([]domain.Timesheet, error) {
	frames, err := b.Frames.GetByDateRange(ctx, &from, &to)
	if err != nil {
		return nil, err
	}
	existing, err := b.Timesheets.All(ctx)
	if err != nil {
		return nil, err
	}
	taken := map[domain.Identifier]bool{}
	for _, ts := range existing {
		for _, id := range ts.FrameUUIDs {
			taken[id] = true
		}
	}
	loc := b.Location
	if loc == nil {
		loc = time.UTC
	}

	var (
		order  []timesheetGroup
		groups = map[timesheetGroup][]domain.Frame{}
	)
	for _, f := range frames {
		if f.IsActive() || taken[f.UUID] || !f.Activity.Key.IsRemote() {
			continue
		}
		g := timesheetGroup{
			day:         f.StartTime.In(loc).Format(domain.DateLayout),
			activity:    f.Activity.Key,
			individual:  f.IsIndividual,
			description: f.Description,
		}
		if f.Role != nil {
			g.roleID = f.Role.ID
		}
		if _, ok := groups[g]; !ok {
			order = append(order, g)
		}
		groups[g] = append(groups[g], f)
	}

	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}
	var out []domain.Timesheet
	for _, g := range order {
		members := groups[g]
		var total time.Duration
		ids := make([]domain.Identifier, 0, len(members))
		for _, f := range members {
			total += f.Duration(now)
			ids = append(ids, f.UUID)
		}
		hours := domain.RoundQuarterHours(total)
		if hours == 0 {
			continue
		}
		date, err := domain.ParseDate(g.day)
		if err != nil {
			return nil, err
		}
		first := members[0]
		ts, err := domain.NewTimesheet(domain.TimesheetParams{
			Activity:         first.Activity,
			Description:      g.description,
			Time:             hours,
			Date:             date,
			Role:             first.Role,
			IndividualAction: first.IsIndividual,
			FrameUUIDs:       ids,
			UpdatedAt:        now,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}

// FromFrames builds timesheets for [from, to] and saves them locally.
func (b TimesheetBuilder) FromFrames(ctx context.Context, from, to time.Time) ([]domain.Timesheet, error) {
	built, err := b.Build(ctx, from, to)
	if err != nil {
		return nil, err
	}
	for _, ts := range built {
		if err := b.Timesheets.Save(ctx, ts); err != nil {
			return nil, err
		}
	}
	return built, nil
}
