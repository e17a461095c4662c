package domain

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestNewFrame_RoleXorIndividual(t *testing.T) {
	_, err := NewFrame(FrameParams{StartTime: at(9, 0), Activity: testRemoteActivity(), Role: testRole(), IsIndividual: true})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("role and individual: expected ErrValidation, got %v", err)
	}
	_, err = NewFrame(FrameParams{StartTime: at(9, 0), Activity: testRemoteActivity()})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("neither role nor individual: expected ErrValidation, got %v", err)
	}

	f, err := NewFrame(FrameParams{StartTime: at(9, 0), Activity: testRemoteActivity(), IsIndividual: true})
	if err != nil {
		t.Fatal(err)
	}
	if !f.IsIndividual || f.Role != nil {
		t.Fatalf("unexpected frame %+v", f)
	}
}

func TestNewFrame_StopBeforeStart(t *testing.T) {
	stop := at(8, 59)
	_, err := NewFrame(FrameParams{StartTime: at(9, 0), StopTime: &stop, Activity: testRemoteActivity(), Role: testRole()})
	if !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}

	f, err := NewFrame(FrameParams{StartTime: at(9, 0), Activity: testRemoteActivity(), Role: testRole()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Stop(at(8, 0)); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("stop before start: expected ErrInvalidTime, got %v", err)
	}
}

func TestNewFrame_NormalizesTimes(t *testing.T) {
	zurich := time.FixedZone("CET", 3600)
	start := time.Date(2024, 3, 4, 10, 0, 0, 123456789, zurich)
	f, err := NewFrame(FrameParams{StartTime: start, Activity: testRemoteActivity(), Role: testRole()})
	if err != nil {
		t.Fatal(err)
	}
	if f.StartTime.Location() != time.UTC || !f.StartTime.Equal(at(9, 0)) || f.StartTime.Nanosecond() != 0 {
		t.Fatalf("start not normalized: %v", f.StartTime)
	}
	if !f.UpdatedAt.Equal(f.StartTime) {
		t.Fatalf("updatedAt %v, want start", f.UpdatedAt)
	}
	if len(f.UUID) != IdentifierLength {
		t.Fatalf("uuid %q", f.UUID)
	}
}

func TestFrame_Stop(t *testing.T) {
	f, err := NewFrame(FrameParams{StartTime: at(9, 0), Activity: testRemoteActivity(), Role: testRole()})
	if err != nil {
		t.Fatal(err)
	}
	if !f.IsActive() || f.Duration(at(9, 30)) != 30*time.Minute {
		t.Fatalf("unexpected running frame %+v", f)
	}

	stopped, err := f.Stop(at(10, 0))
	if err != nil {
		t.Fatal(err)
	}
	if stopped.IsActive() || stopped.Duration(at(23, 0)) != time.Hour || stopped.UUID != f.UUID {
		t.Fatalf("unexpected stopped frame %+v", stopped)
	}
	if !f.IsActive() {
		t.Fatalf("original frame must be unchanged")
	}

	if _, err := stopped.Stop(at(11, 0)); !errors.Is(err, ErrActiveFrame) {
		t.Fatalf("expected ErrActiveFrame, got %v", err)
	}
}

func TestFrame_IssueKeys(t *testing.T) {
	f, err := NewFrame(FrameParams{
		StartTime:    at(9, 0),
		Activity:     testRemoteActivity(),
		IsIndividual: true,
		Description:  "Working on PROJ-123, AB-1 and PROJ-123 again; not abcd-1 or ABCDEF-22",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.IssueKeys(); !slices.Equal(got, []string{"PROJ-123", "AB-1", "PROJ-123"}) {
		t.Fatalf("issue keys %v", got)
	}
	if got := f.UniqueIssueKeys(); !slices.Equal(got, []string{"PROJ-123", "AB-1"}) {
		t.Fatalf("unique issue keys %v", got)
	}
}

func TestSameIssueKeySet(t *testing.T) {
	if !SameIssueKeySet([]string{"A-1", "B-2"}, []string{"B-2", "A-1", "A-1"}) {
		t.Fatalf("order and repetitions must not matter")
	}
	if SameIssueKeySet([]string{"A-1"}, []string{"A-1", "B-2"}) {
		t.Fatalf("different sets compared equal")
	}
	if !SameIssueKeySet(nil, []string{}) {
		t.Fatalf("empty sets must be equal")
	}
}
