package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"zebracli/internal/domain"
	"zebracli/internal/events"
	"zebracli/internal/repo"
	"zebracli/internal/store"
)

// ZebraAPI is everything the engine needs from the remote service.
type ZebraAPI interface {
	repo.ProjectsAPI
	repo.UsersAPI
	repo.TimesheetsAPI
}

// Options configure New. Backend and API are required.
type Options struct {
	Backend  store.Backend
	API      ZebraAPI
	UserID   int
	Aliases  map[string]string
	Location *time.Location
	Logger   *log.Logger
	Now      func() time.Time
}

// Engine bundles the repositories and services working on one data directory.
type Engine struct {
	Frames        *repo.Frames
	Timesheets    *repo.Timesheets
	Projects      *repo.Projects
	ZebraProjects *repo.ZebraProjects
	Users         *repo.Users
	Remote        *repo.RemoteTimesheets
	Events        events.Writer
	Track         Track
	Sync          TimesheetSync
	Builder       TimesheetBuilder
	Location      *time.Location
	Logger        *log.Logger
	Now           func() time.Time
}

func New(opts Options) Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	frames := repo.NewFrames(opts.Backend)
	frames.Now = now
	frames.Logger = opts.Logger
	timesheets := repo.NewTimesheets(opts.Backend)
	timesheets.Logger = opts.Logger
	zebraProjects := repo.NewZebraProjects(opts.Backend, opts.API, opts.Logger)
	users := repo.NewUsers(opts.Backend, opts.API, opts.UserID)
	journal := events.Writer{Store: opts.Backend.Collection(store.Events), Now: now}
	remote := &repo.RemoteTimesheets{API: opts.API, Projects: zebraProjects, Users: users, Logger: opts.Logger}

	return Engine{
		Frames:     frames,
		Timesheets: timesheets,
		Projects: &repo.Projects{
			Local:   repo.NewLocalProjects(opts.Backend, opts.Logger),
			Zebra:   zebraProjects,
			Aliases: opts.Aliases,
		},
		ZebraProjects: zebraProjects,
		Users:         users,
		Remote:        remote,
		Events:        journal,
		Track:         Track{Frames: frames, Roles: users, Recorder: journal, Now: now},
		Sync:          TimesheetSync{Local: timesheets, Remote: remote, Recorder: journal, Logger: opts.Logger},
		Builder:       TimesheetBuilder{Frames: frames, Timesheets: timesheets, Location: loc, Now: now},
		Location:      loc,
		Logger:        opts.Logger,
		Now:           now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// ResolveRole picks the role of a new frame: roleID when non-zero, else the
// role last used on activity. A nil result leaves the choice to the user's
// default role.
func (e Engine) ResolveRole(ctx context.Context, activity domain.Activity, roleID int) (*domain.Role, error) {
	if roleID != 0 {
		role, err := e.Users.Role(ctx, roleID)
		if err != nil {
			return nil, err
		}
		if role == nil {
			return nil, fmt.Errorf("%w: role %d is not one of your roles (see `zebra user refresh`)", domain.ErrValidation, roleID)
		}
		return role, nil
	}
	return e.Frames.LastUsedRoleForActivity(ctx, activity)
}

// GuessActivity returns the activity last tracked with the same issue keys as description.
func (e Engine) GuessActivity(ctx context.Context, description string) (domain.Activity, error) {
	keys := domain.ExtractIssueKeys(description)
	if len(keys) == 0 {
		return domain.Activity{}, fmt.Errorf("%w: an activity is required", domain.ErrValidation)
	}
	a, err := e.Frames.LastActivityForIssueKeys(ctx, keys)
	if err != nil {
		return domain.Activity{}, err
	}
	if a == nil {
		return domain.Activity{}, fmt.Errorf("%w: no previous frame for %v, an activity is required", domain.ErrValidation, domain.UniqueIssueKeys(keys))
	}
	return *a, nil
}

// Refresh reloads the Zebra projects and the user, in that order.
func (e Engine) Refresh(ctx context.Context) error {
	if _, err := e.ZebraProjects.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh projects: %w", err)
	}
	if e.Users.UserID == 0 {
		return nil
	}
	if _, err := e.Users.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh user: %w", err)
	}
	return nil
}

// Status describes the current frame, if any.
type Status struct {
	Frame   *domain.Frame
	Elapsed time.Duration
	// Today is the tracked time since local midnight, current frame included.
	Today time.Duration
}

func (e Engine) Status(ctx context.Context) (Status, error) {
	now := e.now()
	var st Status
	cur, err := e.Track.Current(ctx)
	if err != nil {
		return st, err
	}
	st.Frame = cur
	y, m, d := now.In(e.Location).Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, e.Location)
	frames, err := e.Frames.Filter(ctx, repo.FrameFilter{From: &midnight, To: &now, IncludePartialFrames: true})
	if err != nil {
		return st, err
	}
	for _, f := range frames {
		if f.StartTime.Before(midnight) {
			f.StartTime = midnight
		}
		st.Today += f.Duration(now)
	}
	if cur != nil {
		st.Elapsed = cur.Duration(now)
		start := cur.StartTime
		if start.Before(midnight) {
			start = midnight
		}
		st.Today += now.Sub(start)
	}
	return st, nil
}
