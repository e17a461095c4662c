package engine_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"zebracli/internal/domain"
	"zebracli/internal/engine"
	"zebracli/internal/events"
	"zebracli/internal/repo"
	"zebracli/internal/store"
	"zebracli/internal/zebra"
	"zebracli/internal/zebra/zebratest"
)

var (
	devActivity = domain.Activity{Key: domain.RemoteKey(100), Name: "Development", ProjectKey: domain.RemoteKey(10)}
	opsActivity = domain.Activity{Key: domain.RemoteKey(200), Name: "Operations", ProjectKey: domain.RemoteKey(20)}
	devRole     = domain.Role{ID: 3, Name: "Developer"}
)

type testEnv struct {
	Ctx        context.Context
	Now        time.Time
	Engine     engine.Engine
	Frames     *repo.Frames
	Timesheets *repo.Timesheets
	Users      *repo.Users
	Journal    events.Writer
	Track      engine.Track
	Sync       engine.TimesheetSync
	Builder    engine.TimesheetBuilder
	Server     *zebratest.Server
}

// at returns 2024-03-04 h:m UTC.
func at(h, m int) time.Time {
	return time.Date(2024, 3, 4, h, m, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{Ctx: context.Background(), Now: at(18, 0)}
	clock := func() time.Time { return env.Now }

	srv := zebratest.New(t)
	srv.Now = clock
	srv.AddProject(zebra.Project{ID: 10, Name: "Acme", Status: "active", Activities: []zebra.Activity{{ID: 100, Name: "Development"}}})
	srv.AddProject(zebra.Project{ID: 20, Name: "Internal", Status: "active", Activities: []zebra.Activity{{ID: 200, Name: "Operations"}}})
	srv.AddUser(zebra.User{ID: 7, Firstname: "Ada", Lastname: "Lovelace", Roles: []zebra.Role{{ID: 3, Name: "Developer"}}})
	env.Server = srv

	env.Engine = engine.New(engine.Options{
		Backend:  store.NewFileBackend(t.TempDir()),
		API:      srv.ZebraClient(),
		UserID:   7,
		Location: time.UTC,
		Now:      clock,
	})
	if err := env.Engine.Refresh(env.Ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	env.Frames = env.Engine.Frames
	env.Timesheets = env.Engine.Timesheets
	env.Users = env.Engine.Users
	env.Journal = env.Engine.Events
	env.Track = env.Engine.Track
	env.Sync = env.Engine.Sync
	env.Builder = env.Engine.Builder
	return env
}

func (env *testEnv) addFrame(t *testing.T, a domain.Activity, from, to time.Time, desc string) domain.Frame {
	t.Helper()
	f, err := env.Track.Add(env.Ctx, a, from, to, engine.AddOptions{Description: desc})
	if err != nil {
		t.Fatalf("add frame: %v", err)
	}
	return f
}

func TestStartStopLifecycle(t *testing.T) {
	env := newTestEnv(t)
	started, err := env.Track.Start(env.Ctx, devActivity, engine.StartOptions{Description: "ABC-1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !started.StartTime.Equal(at(18, 0)) || started.Role == nil || started.Role.ID != devRole.ID {
		t.Fatalf("unexpected frame: %+v", started)
	}
	if ok, _ := env.Track.IsStarted(env.Ctx); !ok {
		t.Fatalf("expected running state")
	}
	if _, err := env.Track.Start(env.Ctx, opsActivity, engine.StartOptions{}); !errorIs(err, domain.ErrFrameAlreadyStarted) {
		t.Fatalf("expected ErrFrameAlreadyStarted, got %v", err)
	}

	env.Now = at(19, 30)
	stopped, err := env.Track.Stop(env.Ctx, nil)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped.UUID != started.UUID || !stopped.StopTime.Equal(at(19, 30)) {
		t.Fatalf("unexpected stopped frame: %+v", stopped)
	}
	if cur, _ := env.Track.Current(env.Ctx); cur != nil {
		t.Fatalf("expected idle, current is %+v", cur)
	}
	if _, err := env.Track.Stop(env.Ctx, nil); !errorIs(err, domain.ErrNoFrameStarted) {
		t.Fatalf("expected ErrNoFrameStarted, got %v", err)
	}

	journal, err := env.Journal.Latest(env.Ctx, 0)
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if len(journal) != 2 || journal[0].Type != "frame.stop" || journal[1].Type != "frame.start" {
		t.Fatalf("unexpected journal: %+v", journal)
	}
}

func TestStartRejectsFutureStart(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Track.Start(env.Ctx, devActivity, engine.StartOptions{StartTime: ptr(at(18, 1))})
	if !errorIs(err, domain.ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
	if ok, _ := env.Track.IsStarted(env.Ctx); ok {
		t.Fatalf("nothing must be persisted")
	}
}

func TestStartGapContinuation(t *testing.T) {
	env := newTestEnv(t)
	env.addFrame(t, devActivity, at(9, 0), at(10, 0), "")

	// a stop in the future is ignored when looking for the previous frame
	future, err := domain.NewFrame(domain.FrameParams{StartTime: at(17, 0), StopTime: ptr(at(20, 0)), Activity: opsActivity, IsIndividual: true})
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if err := env.Frames.Save(env.Ctx, future); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err = env.Track.Start(env.Ctx, devActivity, engine.StartOptions{StartTime: ptr(at(9, 30))})
	if !errorIs(err, domain.ErrInvalidTime) {
		t.Fatalf("expected overlap to be rejected, got %v", err)
	}

	f, err := env.Track.Start(env.Ctx, devActivity, engine.StartOptions{NoGap: true})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !f.StartTime.Equal(at(10, 0)) {
		t.Fatalf("expected start at previous stop, got %s", f.StartTime)
	}
	if _, err := env.Track.Cancel(env.Ctx); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	f, err = env.Track.Start(env.Ctx, devActivity, engine.StartOptions{StartTime: ptr(at(9, 30)), NoGap: true})
	if err != nil {
		t.Fatalf("explicit start without gap check: %v", err)
	}
	if !f.StartTime.Equal(at(9, 30)) {
		t.Fatalf("unexpected start %s", f.StartTime)
	}
}

func TestStartNoGapWithoutPreviousFrameStartsNow(t *testing.T) {
	env := newTestEnv(t)
	f, err := env.Track.Start(env.Ctx, devActivity, engine.StartOptions{NoGap: true, IsIndividual: true})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !f.StartTime.Equal(at(18, 0)) || f.Role != nil {
		t.Fatalf("unexpected frame %+v", f)
	}
}

func TestStopRejectsInvalidTimes(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Track.Start(env.Ctx, devActivity, engine.StartOptions{StartTime: ptr(at(12, 0))}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.Track.Stop(env.Ctx, ptr(at(18, 5))); !errorIs(err, domain.ErrInvalidTime) {
		t.Fatalf("future stop: got %v", err)
	}
	if _, err := env.Track.Stop(env.Ctx, ptr(at(11, 59))); !errorIs(err, domain.ErrInvalidTime) {
		t.Fatalf("stop before start: got %v", err)
	}
	f, err := env.Track.Stop(env.Ctx, ptr(at(13, 0)))
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if f.Duration(env.Now) != time.Hour {
		t.Fatalf("unexpected duration %s", f.Duration(env.Now))
	}
}

func TestAddLeavesCurrentFrameAlone(t *testing.T) {
	env := newTestEnv(t)
	cur, err := env.Track.Start(env.Ctx, devActivity, engine.StartOptions{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.Track.Add(env.Ctx, opsActivity, at(10, 0), at(9, 0), engine.AddOptions{}); !errorIs(err, domain.ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
	added := env.addFrame(t, opsActivity, at(9, 0), at(10, 0), "")
	if added.IsActive() {
		t.Fatalf("added frame must be completed")
	}
	still, err := env.Track.Current(env.Ctx)
	if err != nil || still == nil || still.UUID != cur.UUID {
		t.Fatalf("current frame changed: %+v %v", still, err)
	}
}

func TestCancelDiscardsCurrentFrame(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Track.Cancel(env.Ctx); !errorIs(err, domain.ErrNoFrameStarted) {
		t.Fatalf("expected ErrNoFrameStarted, got %v", err)
	}
	started, err := env.Track.Start(env.Ctx, devActivity, engine.StartOptions{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	cancelled, err := env.Track.Cancel(env.Ctx)
	if err != nil || cancelled.UUID != started.UUID {
		t.Fatalf("cancel: %+v %v", cancelled, err)
	}
	all, err := env.Frames.All(env.Ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("cancelled frame must not be stored: %v %v", all, err)
	}
}

func TestUnreadableCurrentFrameDoesNotBlockTracking(t *testing.T) {
	env := newTestEnv(t)
	corrupt := store.Document{"current": json.RawMessage(`{"uuid":"zz","start":5}`)}
	if err := env.Frames.Current.Write(env.Ctx, corrupt); err != nil {
		t.Fatal(err)
	}
	ok, err := env.Track.IsStarted(env.Ctx)
	if err != nil || ok {
		t.Fatalf("expected idle, got %v %v", ok, err)
	}
	if _, err := env.Track.Stop(env.Ctx, nil); !errorIs(err, domain.ErrNoFrameStarted) {
		t.Fatalf("expected ErrNoFrameStarted from stop, got %v", err)
	}
	if _, err := env.Track.Cancel(env.Ctx); !errorIs(err, domain.ErrNoFrameStarted) {
		t.Fatalf("expected ErrNoFrameStarted from cancel, got %v", err)
	}
	doc, err := env.Frames.Current.Read(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc) != 0 {
		t.Fatalf("cancel must clear the slot, got %s", doc["current"])
	}

	if err := env.Frames.Current.Write(env.Ctx, corrupt); err != nil {
		t.Fatal(err)
	}
	started, err := env.Track.Start(env.Ctx, devActivity, engine.StartOptions{})
	if err != nil {
		t.Fatalf("start over unreadable slot: %v", err)
	}
	cur, err := env.Track.Current(env.Ctx)
	if err != nil || cur == nil || cur.UUID != started.UUID {
		t.Fatalf("unexpected current frame: %+v %v", cur, err)
	}
}

func TestRoleIsRequiredWithoutDefault(t *testing.T) {
	env := newTestEnv(t)
	env.Track.Roles = nil
	if _, err := env.Track.Start(env.Ctx, devActivity, engine.StartOptions{}); !errorIs(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	lead := &domain.Role{ID: 4, Name: "Lead"}
	f, err := env.Track.Add(env.Ctx, devActivity, at(9, 0), at(10, 0), engine.AddOptions{Role: lead})
	if err != nil || f.Role.ID != 4 {
		t.Fatalf("explicit role: %+v %v", f, err)
	}
	if _, err := env.Track.Add(env.Ctx, devActivity, at(9, 0), at(10, 0), engine.AddOptions{Role: lead, IsIndividual: true}); !errorIs(err, domain.ErrValidation) {
		t.Fatalf("role and individual together: got %v", err)
	}
}

func TestResolveRolePrefersExplicitThenLastUsed(t *testing.T) {
	env := newTestEnv(t)
	role, err := env.Engine.ResolveRole(env.Ctx, devActivity, 0)
	if err != nil || role != nil {
		t.Fatalf("no history yet: %+v %v", role, err)
	}
	lead := &domain.Role{ID: 4, Name: "Lead"}
	if _, err := env.Track.Add(env.Ctx, devActivity, at(9, 0), at(10, 0), engine.AddOptions{Role: lead}); err != nil {
		t.Fatalf("add: %v", err)
	}
	role, err = env.Engine.ResolveRole(env.Ctx, devActivity, 0)
	if err != nil || role == nil || role.ID != 4 {
		t.Fatalf("last used role: %+v %v", role, err)
	}
	role, err = env.Engine.ResolveRole(env.Ctx, devActivity, 3)
	if err != nil || role == nil || role.Name != "Developer" {
		t.Fatalf("explicit role: %+v %v", role, err)
	}
	if _, err := env.Engine.ResolveRole(env.Ctx, devActivity, 99); !errorIs(err, domain.ErrValidation) {
		t.Fatalf("unknown role: got %v", err)
	}
}

func TestGuessActivityFromIssueKeys(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.GuessActivity(env.Ctx, "meeting"); !errorIs(err, domain.ErrValidation) {
		t.Fatalf("no keys: got %v", err)
	}
	if _, err := env.Engine.GuessActivity(env.Ctx, "ABC-1"); !errorIs(err, domain.ErrValidation) {
		t.Fatalf("no history: got %v", err)
	}
	env.addFrame(t, opsActivity, at(9, 0), at(10, 0), "ABC-1 deploy")
	a, err := env.Engine.GuessActivity(env.Ctx, "more ABC-1")
	if err != nil || a.Key != opsActivity.Key {
		t.Fatalf("guess: %+v %v", a, err)
	}
}

func TestStatusCountsToday(t *testing.T) {
	env := newTestEnv(t)
	env.addFrame(t, devActivity, at(9, 0), at(10, 30), "")
	yesterday := at(9, 0).Add(-24 * time.Hour)
	env.addFrame(t, devActivity, yesterday, yesterday.Add(time.Hour), "")
	env.Now = at(17, 0)
	if _, err := env.Track.Start(env.Ctx, devActivity, engine.StartOptions{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	env.Now = at(17, 45)
	st, err := env.Engine.Status(env.Ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Frame == nil || st.Elapsed != 45*time.Minute {
		t.Fatalf("unexpected current: %+v", st)
	}
	if st.Today != 2*time.Hour+15*time.Minute {
		t.Fatalf("today = %s", st.Today)
	}
}
