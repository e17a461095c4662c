package repo

import (
	"context"
	"fmt"
	"log"
	"time"

	"zebracli/internal/domain"
	"zebracli/internal/zebra"
)

type TimesheetsAPI interface {
	Timesheets(ctx context.Context, filter zebra.TimesheetFilter) ([]zebra.Timesheet, error)
	Timesheet(ctx context.Context, id int) (zebra.Timesheet, error)
	CreateTimesheet(ctx context.Context, ts zebra.Timesheet) (zebra.Timesheet, error)
	UpdateTimesheet(ctx context.Context, id int, ts zebra.Timesheet) (zebra.Timesheet, error)
	DeleteTimesheet(ctx context.Context, id int) error
}

// RemoteTimesheets reads and writes timesheets through the Zebra API. Records
// it returns carry fresh local uuids and no frames.
type RemoteTimesheets struct {
	API      TimesheetsAPI
	Projects *ZebraProjects
	Users    *Users
	Logger   *log.Logger
}

// All lists remote timesheets dated within [from, to]. Records that cannot be
// converted are logged and skipped.
func (r *RemoteTimesheets) All(ctx context.Context, from, to time.Time) ([]domain.Timesheet, error) {
	list, err := r.API.Timesheets(ctx, zebra.TimesheetFilter{
		StartDate: from.Format(domain.DateLayout),
		EndDate:   to.Format(domain.DateLayout),
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Timesheet, 0, len(list))
	for _, w := range list {
		ts, err := r.toDomain(ctx, w)
		if err != nil {
			loggerOr(r.Logger).Printf("skipping zebra timesheet %d: %v", w.ID, err)
			continue
		}
		out = append(out, ts)
	}
	return out, nil
}

// Get returns the remote timesheet, or nil when Zebra no longer has it.
func (r *RemoteTimesheets) Get(ctx context.Context, id int) (*domain.Timesheet, error) {
	w, err := r.API.Timesheet(ctx, id)
	if zebra.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ts, err := r.toDomain(ctx, w)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (r *RemoteTimesheets) Create(ctx context.Context, ts domain.Timesheet) (domain.Timesheet, error) {
	payload, err := toZebra(ts)
	if err != nil {
		return domain.Timesheet{}, err
	}
	created, err := r.API.CreateTimesheet(ctx, payload)
	if err != nil {
		return domain.Timesheet{}, err
	}
	return r.toDomain(ctx, created)
}

func (r *RemoteTimesheets) Update(ctx context.Context, ts domain.Timesheet) (domain.Timesheet, error) {
	if ts.ZebraID == nil {
		return domain.Timesheet{}, fmt.Errorf("%w: timesheet %s was never pushed", domain.ErrValidation, ts.UUID)
	}
	payload, err := toZebra(ts)
	if err != nil {
		return domain.Timesheet{}, err
	}
	updated, err := r.API.UpdateTimesheet(ctx, *ts.ZebraID, payload)
	if err != nil {
		return domain.Timesheet{}, err
	}
	return r.toDomain(ctx, updated)
}

func (r *RemoteTimesheets) Delete(ctx context.Context, id int) error {
	return r.API.DeleteTimesheet(ctx, id)
}

func (r *RemoteTimesheets) toDomain(ctx context.Context, w zebra.Timesheet) (domain.Timesheet, error) {
	activity := domain.Activity{
		Key:        domain.RemoteKey(w.ActivityID),
		Name:       fmt.Sprintf("#%d", w.ActivityID),
		ProjectKey: domain.RemoteKey(w.ProjectID),
	}
	if r.Projects != nil {
		a, ok, err := r.Projects.Activity(ctx, w.ProjectID, w.ActivityID)
		if err != nil {
			return domain.Timesheet{}, err
		}
		if ok {
			activity = a
		}
	}
	var role *domain.Role
	if w.RoleID != nil {
		role = &domain.Role{ID: *w.RoleID}
		if r.Users != nil {
			known, err := r.Users.Role(ctx, *w.RoleID)
			if err != nil {
				return domain.Timesheet{}, err
			}
			if known != nil {
				role = known
			}
		}
	}
	date, err := domain.ParseDate(w.Date)
	if err != nil {
		return domain.Timesheet{}, err
	}
	var updated time.Time
	if w.UpdatedAt != "" {
		updated, err = time.Parse(time.RFC3339, w.UpdatedAt)
		if err != nil {
			return domain.Timesheet{}, fmt.Errorf("%w: updated_at %q", domain.ErrValidation, w.UpdatedAt)
		}
	}
	id := w.ID
	return domain.NewTimesheet(domain.TimesheetParams{
		Activity:          activity,
		Description:       w.Description,
		ClientDescription: w.ClientDescription,
		Time:              w.Time,
		Date:              date,
		Role:              role,
		IndividualAction:  w.IndividualAction,
		ZebraID:           &id,
		UpdatedAt:         updated,
	})
}

func toZebra(ts domain.Timesheet) (zebra.Timesheet, error) {
	projectID, ok := ts.Activity.ProjectKey.RemoteID()
	if !ok {
		return zebra.Timesheet{}, fmt.Errorf("%w: project %s is not a zebra project", domain.ErrValidation, ts.Activity.ProjectKey)
	}
	activityID, ok := ts.Activity.Key.RemoteID()
	if !ok {
		return zebra.Timesheet{}, fmt.Errorf("%w: activity %s is not a zebra activity", domain.ErrValidation, ts.Activity.Key)
	}
	w := zebra.Timesheet{
		ProjectID:         projectID,
		ActivityID:        activityID,
		IndividualAction:  ts.IndividualAction,
		Description:       ts.Description,
		ClientDescription: ts.ClientDescription,
		Time:              ts.Time,
		Date:              ts.Date.Format(domain.DateLayout),
	}
	if ts.Role != nil {
		roleID := ts.Role.ID
		w.RoleID = &roleID
	}
	return w, nil
}
