package engine_test

import (
	"testing"

	"zebracli/internal/domain"
)

func TestBuilderGroupsFramesIntoTimesheets(t *testing.T) {
	env := newTestEnv(t)
	a := env.addFrame(t, devActivity, at(9, 0), at(9, 40), "ABC-1")
	b := env.addFrame(t, devActivity, at(10, 0), at(10, 35), "ABC-1")
	env.addFrame(t, devActivity, at(11, 0), at(11, 5), "too short")
	env.addFrame(t, opsActivity, at(12, 0), at(13, 0), "ABC-1")

	local := domain.Activity{Key: domain.LocalKey(domain.NewIdentifier()), Name: "Garden", ProjectKey: domain.LocalKey(domain.NewIdentifier())}
	env.addFrame(t, local, at(14, 0), at(15, 0), "")

	built, err := env.Builder.FromFrames(env.Ctx, at(0, 0), at(23, 59))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(built) != 2 {
		t.Fatalf("expected 2 timesheets, got %d: %+v", len(built), built)
	}
	first := built[0]
	if first.Time != 1.25 || first.Activity.Key != devActivity.Key || !first.HasFrame(a.UUID) || !first.HasFrame(b.UUID) {
		t.Fatalf("unexpected first timesheet %+v", first)
	}
	if first.Role == nil || first.Role.ID != devRole.ID {
		t.Fatalf("role not carried over: %+v", first.Role)
	}
	if built[1].Time != 1 || built[1].Activity.Key != opsActivity.Key {
		t.Fatalf("unexpected second timesheet %+v", built[1])
	}

	again, err := env.Builder.FromFrames(env.Ctx, at(0, 0), at(23, 59))
	if err != nil || len(again) != 0 {
		t.Fatalf("frames already in timesheets must be skipped: %+v %v", again, err)
	}
	stored, err := env.Timesheets.All(env.Ctx)
	if err != nil || len(stored) != 2 {
		t.Fatalf("stored: %d %v", len(stored), err)
	}
}

func TestBuildDoesNotSave(t *testing.T) {
	env := newTestEnv(t)
	env.addFrame(t, devActivity, at(9, 0), at(10, 0), "")
	built, err := env.Builder.Build(env.Ctx, at(0, 0), at(23, 59))
	if err != nil || len(built) != 1 {
		t.Fatalf("build: %+v %v", built, err)
	}
	stored, _ := env.Timesheets.All(env.Ctx)
	if len(stored) != 0 {
		t.Fatalf("build must not persist")
	}
	if _, err := env.Builder.FromFrames(env.Ctx, at(0, 0), at(23, 59)); err != nil {
		t.Fatalf("from frames: %v", err)
	}
}
