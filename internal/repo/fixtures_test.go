package repo

import (
	"testing"
	"time"

	"zebracli/internal/domain"
	"zebracli/internal/store"
)

var (
	devActivity = domain.Activity{
		Key:        domain.RemoteKey(100),
		Name:       "Development",
		ProjectKey: domain.RemoteKey(10),
	}
	opsActivity = domain.Activity{
		Key:        domain.RemoteKey(200),
		Name:       "Operations",
		ProjectKey: domain.RemoteKey(20),
	}
	devRole = &domain.Role{ID: 3, Name: "Developer"}
)

// at returns 2024-03-04 h:m UTC.
func at(h, m int) time.Time {
	return time.Date(2024, 3, 4, h, m, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func newTestFrames(t *testing.T) (*Frames, store.Backend) {
	t.Helper()
	b := store.NewFileBackend(t.TempDir())
	r := NewFrames(b)
	r.Now = func() time.Time { return at(18, 0) }
	return r, b
}

func completedFrame(t *testing.T, a domain.Activity, start, stop time.Time, desc string) domain.Frame {
	t.Helper()
	f, err := domain.NewFrame(domain.FrameParams{
		StartTime:   start,
		StopTime:    &stop,
		Activity:    a,
		Role:        devRole,
		Description: desc,
	})
	if err != nil {
		t.Fatalf("completed frame: %v", err)
	}
	return f
}

func activeFrame(t *testing.T, a domain.Activity, start time.Time) domain.Frame {
	t.Helper()
	f, err := domain.NewFrame(domain.FrameParams{
		StartTime:    start,
		Activity:     a,
		IsIndividual: true,
	})
	if err != nil {
		t.Fatalf("active frame: %v", err)
	}
	return f
}
