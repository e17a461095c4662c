package domain

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestNewTimesheet_Validation(t *testing.T) {
	base := TimesheetParams{Activity: testRemoteActivity(), Time: 1.5, Date: at(0, 0), Role: testRole()}
	if _, err := NewTimesheet(base); err != nil {
		t.Fatal(err)
	}

	neg := base
	neg.Time = -0.25
	odd := base
	odd.Time = 1.3
	both := base
	both.IndividualAction = true
	local := base
	local.Activity = Activity{Key: LocalKey(NewIdentifier()), ProjectKey: LocalKey(NewIdentifier()), Name: "Local"}

	for name, p := range map[string]TimesheetParams{"negative": neg, "not a quarter": odd, "role and individual": both, "local activity": local} {
		if _, err := NewTimesheet(p); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", name, err)
		}
	}
}

func TestTimesheet_MergeRemote(t *testing.T) {
	frameID := NewIdentifier()
	local, err := NewTimesheet(TimesheetParams{
		Activity:    testRemoteActivity(),
		Description: "local",
		Time:        1,
		Date:        at(0, 0),
		Role:        testRole(),
		FrameUUIDs:  []Identifier{frameID},
		DoNotSync:   true,
	})
	if err != nil {
		t.Fatal(err)
	}

	zebraID := 42
	remote, err := NewTimesheet(TimesheetParams{
		Activity:         Activity{Key: RemoteKey(12), Name: "Meeting", ProjectKey: RemoteKey(1)},
		Description:      "remote",
		Time:             2.25,
		Date:             at(0, 0).AddDate(0, 0, 1),
		IndividualAction: true,
		ZebraID:          &zebraID,
		UpdatedAt:        at(12, 0),
	})
	if err != nil {
		t.Fatal(err)
	}

	merged, err := local.MergeRemote(remote)
	if err != nil {
		t.Fatal(err)
	}
	if merged.UUID != local.UUID || !slices.Equal(merged.FrameUUIDs, []Identifier{frameID}) || !merged.DoNotSync {
		t.Fatalf("local provenance lost: %+v", merged)
	}
	if merged.Description != "remote" || merged.Time != 2.25 || merged.Activity.Key != RemoteKey(12) {
		t.Fatalf("remote fields not taken: %+v", merged)
	}
	if !merged.IndividualAction || merged.Role != nil {
		t.Fatalf("role/individual not taken from remote: %+v", merged)
	}
	if merged.ZebraID == nil || *merged.ZebraID != 42 || !merged.UpdatedAt.Equal(at(12, 0)) {
		t.Fatalf("zebra id or updatedAt wrong: %+v", merged)
	}
}

func TestRoundQuarterHours(t *testing.T) {
	for d, want := range map[time.Duration]float64{
		7 * time.Minute:  0,
		8 * time.Minute:  0.25,
		time.Hour:        1,
		95 * time.Minute: 1.5,
	} {
		if got := RoundQuarterHours(d); got != want {
			t.Fatalf("RoundQuarterHours(%v) = %v, want %v", d, got, want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	zurich := time.FixedZone("CEST", 2*3600)
	late := time.Date(2024, 3, 4, 23, 30, 0, 0, zurich)
	if got := NormalizeDate(late); !got.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) || got.Location() != time.UTC {
		t.Fatalf("NormalizeDate = %v", got)
	}
}
