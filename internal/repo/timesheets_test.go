package repo

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"zebracli/internal/domain"
	"zebracli/internal/store"
)

func newTestTimesheet(t *testing.T, day int, zebraID *int, frames ...domain.Identifier) domain.Timesheet {
	t.Helper()
	ts, err := domain.NewTimesheet(domain.TimesheetParams{
		Activity:    devActivity,
		Description: "ABC-1 review",
		Time:        1.25,
		Date:        at(0, 0).AddDate(0, 0, day),
		Role:        devRole,
		FrameUUIDs:  frames,
		ZebraID:     zebraID,
		UpdatedAt:   at(12, 0),
	})
	if err != nil {
		t.Fatalf("timesheet: %v", err)
	}
	return ts
}

func TestTimesheetsRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := NewTimesheets(store.NewFileBackend(t.TempDir()))
	frame := domain.NewIdentifier()
	ts := newTestTimesheet(t, 0, ptr(456), frame)
	ts.DoNotSync = true

	if err := r.Save(ctx, ts); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := r.Get(ctx, ts.UUID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(ts, got) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, ts)
	}

	byZebra, err := r.GetByZebraID(ctx, 456)
	if err != nil || byZebra == nil || byZebra.UUID != ts.UUID {
		t.Fatalf("by zebra id: %+v %v", byZebra, err)
	}

	byFrame, err := r.GetByFrameUUID(ctx, frame)
	if err != nil || len(byFrame) != 1 {
		t.Fatalf("by frame: %+v %v", byFrame, err)
	}

	missing, err := r.GetByZebraID(ctx, 457)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown zebra id, got %+v %v", missing, err)
	}
}

func TestTimesheetsLoadRecordWithoutDoNotSync(t *testing.T) {
	ctx := context.Background()
	b := store.NewMemoryBackend()
	s := b.Collection(store.Timesheets)
	err := s.Write(ctx, store.Document{
		"abc12345": json.RawMessage(`{
			"uuid": "abc12345",
			"projectId": {"source": "zebra", "id": 10},
			"activity": {"key": {"source": "zebra", "id": "100"}, "name": "Development", "desc": "", "project": {"source": "zebra", "id": 10}},
			"description": "legacy",
			"clientDescription": "",
			"time": 0.5,
			"date": "2024-03-04",
			"role": null,
			"individualAction": true,
			"frameUuids": [],
			"zebraId": 789,
			"updatedAt": 1709553600
		}`),
	})
	if err != nil {
		t.Fatal(err)
	}

	r := NewTimesheets(b)
	ts, err := r.Get(ctx, domain.MustParseIdentifier("abc12345"))
	if err != nil {
		t.Fatalf("get legacy record: %v", err)
	}
	if ts.DoNotSync || ts.Activity.Key != domain.RemoteKey(100) {
		t.Fatalf("unexpected legacy timesheet %+v", ts)
	}
	if ts.ZebraID == nil || *ts.ZebraID != 789 {
		t.Fatalf("zebra id %v", ts.ZebraID)
	}

	if err := r.Update(ctx, ts); err != nil {
		t.Fatalf("update: %v", err)
	}
	doc, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(doc["abc12345"], &rec); err != nil {
		t.Fatal(err)
	}
	if v, ok := rec["doNotSync"]; !ok || v != false {
		t.Fatalf("doNotSync must be written as false, record %v", rec)
	}
}

func TestTimesheetsZebraIDConflict(t *testing.T) {
	ctx := context.Background()
	r := NewTimesheets(store.NewMemoryBackend())
	first := newTestTimesheet(t, 0, ptr(456))
	if err := r.Save(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := newTestTimesheet(t, 1, ptr(456))
	if err := r.Save(ctx, second); !errors.Is(err, domain.ErrZebraIDConflict) {
		t.Fatalf("expected ErrZebraIDConflict, got %v", err)
	}

	// the owner itself may be saved again
	if err := r.Save(ctx, first); err != nil {
		t.Fatalf("resave owner: %v", err)
	}
}

func TestTimesheetsUpdateAndRemoveMissing(t *testing.T) {
	ctx := context.Background()
	r := NewTimesheets(store.NewMemoryBackend())
	ts := newTestTimesheet(t, 0, nil)
	if err := r.Update(ctx, ts); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing: %v", err)
	}
	if err := r.Remove(ctx, ts.UUID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("remove missing: %v", err)
	}

	if err := r.Save(ctx, ts); err != nil {
		t.Fatal(err)
	}
	if err := r.Remove(ctx, ts.UUID); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get(ctx, ts.UUID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestTimesheetsGetByDateRange(t *testing.T) {
	ctx := context.Background()
	r := NewTimesheets(store.NewMemoryBackend())
	for day := 0; day < 4; day++ {
		if err := r.Save(ctx, newTestTimesheet(t, day, nil)); err != nil {
			t.Fatal(err)
		}
	}
	got, err := r.GetByDateRange(ctx, ptr(at(15, 0).AddDate(0, 0, 1)), ptr(at(1, 0).AddDate(0, 0, 2)))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Date.Format(domain.DateLayout) != "2024-03-05" || got[1].Date.Format(domain.DateLayout) != "2024-03-06" {
		t.Fatalf("unexpected range result %+v", got)
	}

	got, err = r.GetByDateRange(ctx, nil, nil)
	if err != nil || len(got) != 4 {
		t.Fatalf("open range: %d %v", len(got), err)
	}
}
