package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"zebracli/internal/domain"
	"zebracli/internal/events"
	"zebracli/internal/repo"
	"zebracli/internal/zebra"
)

// Confirmer asks the user before a remote record is overwritten or deleted.
type Confirmer interface {
	Confirm(message string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(message string) (bool, error)

func (f ConfirmFunc) Confirm(message string) (bool, error) { return f(message) }

// TimesheetSync moves timesheets between the local store and Zebra. A local
// timesheet without a zebra id has never been pushed; conflicts on pull are
// settled by UpdatedAt, newest wins.
type TimesheetSync struct {
	Local    *repo.Timesheets
	Remote   *repo.RemoteTimesheets
	Recorder Recorder
	Logger   *log.Logger
}

// PushLocalToZebra creates or, after confirmation, updates ts in Zebra and
// stores the merged result locally. It returns nil when the user declined or
// Zebra no longer has the timesheet.
func (s TimesheetSync) PushLocalToZebra(ctx context.Context, ts domain.Timesheet, confirm Confirmer) (*domain.Timesheet, error) {
	if ts.ZebraID == nil {
		created, err := s.Remote.Create(ctx, ts)
		if zebra.IsNotFound(err) {
			logf(s.Logger, "warning: zebra rejected timesheet %s as not found: %v", ts.UUID, err)
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("create timesheet %s in zebra: %w", ts.UUID, err)
		}
		merged, err := ts.MergeRemote(created)
		if err != nil {
			return nil, err
		}
		if err := s.Local.Save(ctx, merged); err != nil {
			return nil, err
		}
		s.record(ctx, "timesheet.create", merged)
		return &merged, nil
	}

	ok, err := confirmed(confirm, fmt.Sprintf("Overwrite zebra timesheet %d (%s, %.2fh on %s)?",
		*ts.ZebraID, ts.Activity.Name, ts.Time, ts.Date.Format(domain.DateLayout)))
	if err != nil || !ok {
		return nil, err
	}
	if _, err := s.Remote.Update(ctx, ts); err != nil {
		if zebra.IsNotFound(err) {
			logf(s.Logger, "warning: zebra timesheet %d no longer exists, %s was not pushed", *ts.ZebraID, ts.UUID)
			return nil, nil
		}
		return nil, fmt.Errorf("update zebra timesheet %d: %w", *ts.ZebraID, err)
	}
	fresh, err := s.Remote.Get(ctx, *ts.ZebraID)
	if err != nil {
		return nil, fmt.Errorf("fetch zebra timesheet %d: %w", *ts.ZebraID, err)
	}
	if fresh == nil {
		logf(s.Logger, "warning: zebra timesheet %d disappeared after update", *ts.ZebraID)
		return nil, nil
	}
	merged, err := ts.MergeRemote(*fresh)
	if err != nil {
		return nil, err
	}
	if err := s.Local.Update(ctx, merged); err != nil {
		return nil, err
	}
	s.record(ctx, "timesheet.update", merged)
	return &merged, nil
}

// PullFromZebra fetches remote timesheets dated in [from, to] (to defaults to
// from) and returns those that were created or updated locally.
func (s TimesheetSync) PullFromZebra(ctx context.Context, from time.Time, to *time.Time) ([]domain.Timesheet, error) {
	end := from
	if to != nil {
		end = *to
	}
	remote, err := s.Remote.All(ctx, from, end)
	if err != nil {
		return nil, fmt.Errorf("fetch zebra timesheets: %w", err)
	}
	var changed []domain.Timesheet
	for _, r := range remote {
		local, err := s.Local.GetByZebraID(ctx, *r.ZebraID)
		if err != nil {
			return changed, err
		}
		if local == nil {
			if err := s.Local.Save(ctx, r); err != nil {
				return changed, err
			}
			s.record(ctx, "timesheet.pull", r)
			changed = append(changed, r)
			continue
		}
		if !r.UpdatedAt.After(local.UpdatedAt) {
			continue
		}
		merged, err := local.MergeRemote(r)
		if err != nil {
			return changed, err
		}
		if err := s.Local.Update(ctx, merged); err != nil {
			return changed, err
		}
		s.record(ctx, "timesheet.pull", merged)
		changed = append(changed, merged)
	}
	return changed, nil
}

// PushRange pushes local timesheets dated in [from, to] that are new or were
// changed locally after their last sync. DoNotSync timesheets are left alone.
func (s TimesheetSync) PushRange(ctx context.Context, from, to time.Time, confirm Confirmer) ([]domain.Timesheet, error) {
	local, err := s.Local.GetByDateRange(ctx, &from, &to)
	if err != nil {
		return nil, err
	}
	var pushed []domain.Timesheet
	for _, ts := range local {
		if ts.DoNotSync {
			continue
		}
		if ts.ZebraID != nil {
			remote, err := s.Remote.Get(ctx, *ts.ZebraID)
			if err != nil {
				return pushed, err
			}
			if remote == nil {
				logf(s.Logger, "warning: zebra timesheet %d of %s no longer exists", *ts.ZebraID, ts.UUID)
				continue
			}
			if !ts.UpdatedAt.After(remote.UpdatedAt) {
				continue
			}
		}
		res, err := s.PushLocalToZebra(ctx, ts, confirm)
		if err != nil {
			return pushed, err
		}
		if res != nil {
			pushed = append(pushed, *res)
		}
	}
	return pushed, nil
}

// Delete removes ts locally and, after confirmation, in Zebra. It reports
// false when the user declined.
func (s TimesheetSync) Delete(ctx context.Context, ts domain.Timesheet, confirm Confirmer) (bool, error) {
	if ts.ZebraID != nil {
		ok, err := confirmed(confirm, fmt.Sprintf("Delete zebra timesheet %d (%s, %.2fh on %s)?",
			*ts.ZebraID, ts.Activity.Name, ts.Time, ts.Date.Format(domain.DateLayout)))
		if err != nil || !ok {
			return false, err
		}
		if err := s.Remote.Delete(ctx, *ts.ZebraID); err != nil && !zebra.IsNotFound(err) {
			return false, fmt.Errorf("delete zebra timesheet %d: %w", *ts.ZebraID, err)
		}
	}
	if err := s.Local.Remove(ctx, ts.UUID); err != nil {
		return false, err
	}
	s.record(ctx, "timesheet.delete", ts)
	return true, nil
}

func (s TimesheetSync) record(ctx context.Context, typ string, ts domain.Timesheet) {
	if s.Recorder == nil {
		return
	}
	payload := events.EventPayload{"date": ts.Date.Format(domain.DateLayout), "time": ts.Time}
	if ts.ZebraID != nil {
		payload["zebra_id"] = *ts.ZebraID
	}
	if err := s.Recorder.Append(ctx, typ, "timesheet", ts.UUID.Hex(), payload); err != nil {
		logf(s.Logger, "record %s: %v", typ, err)
	}
}

// confirmed treats a missing confirmer as a refusal.
func confirmed(c Confirmer, message string) (bool, error) {
	if c == nil {
		return false, nil
	}
	return c.Confirm(message)
}

func logf(l *log.Logger, format string, args ...any) {
	if l == nil {
		return
	}
	l.Printf(format, args...)
}
