package repo

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"zebracli/internal/domain"
	"zebracli/internal/store"
)

// Timesheets is the local timesheet collection.
type Timesheets struct {
	Store  store.Store
	Logger *log.Logger
}

func NewTimesheets(b store.Backend) *Timesheets {
	return &Timesheets{Store: b.Collection(store.Timesheets)}
}

// All returns local timesheets ordered by date, skipping undecodable records.
func (r *Timesheets) All(ctx context.Context) ([]domain.Timesheet, error) {
	doc, err := r.Store.Read(ctx)
	if err != nil {
		return nil, err
	}
	logger := loggerOr(r.Logger)
	out := make([]domain.Timesheet, 0, len(doc))
	for key, raw := range doc {
		ts, err := decodeTimesheet(raw)
		if err != nil {
			logger.Printf("skipping timesheet %s: %v", key, err)
			continue
		}
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].UUID < out[j].UUID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (r *Timesheets) Get(ctx context.Context, id domain.Identifier) (domain.Timesheet, error) {
	doc, err := r.Store.Read(ctx)
	if err != nil {
		return domain.Timesheet{}, err
	}
	raw, ok := doc[id.Hex()]
	if !ok {
		return domain.Timesheet{}, fmt.Errorf("%w: timesheet %s", ErrNotFound, id)
	}
	ts, err := decodeTimesheet(raw)
	if err != nil {
		return domain.Timesheet{}, fmt.Errorf("%w: timesheet %s: %v", ErrNotFound, id, err)
	}
	return ts, nil
}

// GetByZebraID returns the local timesheet linked to a Zebra id, or nil.
func (r *Timesheets) GetByZebraID(ctx context.Context, zebraID int) (*domain.Timesheet, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ZebraID != nil && *all[i].ZebraID == zebraID {
			return &all[i], nil
		}
	}
	return nil, nil
}

// GetByDateRange returns timesheets whose date lies in [from, to], by calendar day.
func (r *Timesheets) GetByDateRange(ctx context.Context, from, to *time.Time) ([]domain.Timesheet, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	var lo, hi time.Time
	if from != nil {
		lo = domain.NormalizeDate(*from)
	}
	if to != nil {
		hi = domain.NormalizeDate(*to)
	}
	out := all[:0]
	for _, ts := range all {
		if from != nil && ts.Date.Before(lo) {
			continue
		}
		if to != nil && ts.Date.After(hi) {
			continue
		}
		out = append(out, ts)
	}
	return out, nil
}

// GetByFrameUUID returns the timesheets a frame contributed to.
func (r *Timesheets) GetByFrameUUID(ctx context.Context, frame domain.Identifier) ([]domain.Timesheet, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Timesheet
	for _, ts := range all {
		if ts.HasFrame(frame) {
			out = append(out, ts)
		}
	}
	return out, nil
}

// Save inserts or replaces a timesheet by uuid.
func (r *Timesheets) Save(ctx context.Context, ts domain.Timesheet) error {
	return r.put(ctx, ts, false)
}

// Update replaces an existing timesheet.
func (r *Timesheets) Update(ctx context.Context, ts domain.Timesheet) error {
	return r.put(ctx, ts, true)
}

func (r *Timesheets) put(ctx context.Context, ts domain.Timesheet, mustExist bool) error {
	if err := ts.Validate(); err != nil {
		return err
	}
	doc, err := r.Store.Read(ctx)
	if err != nil {
		return err
	}
	if _, ok := doc[ts.UUID.Hex()]; mustExist && !ok {
		return fmt.Errorf("%w: timesheet %s", ErrNotFound, ts.UUID)
	}
	if ts.ZebraID != nil {
		for key, raw := range doc {
			if key == ts.UUID.Hex() {
				continue
			}
			other, err := decodeTimesheet(raw)
			if err != nil {
				continue
			}
			if other.ZebraID != nil && *other.ZebraID == *ts.ZebraID {
				return fmt.Errorf("%w: zebra id %d belongs to %s", domain.ErrZebraIDConflict, *ts.ZebraID, other.UUID)
			}
		}
	}
	raw, err := marshalTimesheet(ts)
	if err != nil {
		return err
	}
	doc[ts.UUID.Hex()] = raw
	return r.Store.Write(ctx, doc)
}

func (r *Timesheets) Remove(ctx context.Context, id domain.Identifier) error {
	doc, err := r.Store.Read(ctx)
	if err != nil {
		return err
	}
	if _, ok := doc[id.Hex()]; !ok {
		return fmt.Errorf("%w: timesheet %s", ErrNotFound, id)
	}
	delete(doc, id.Hex())
	return r.Store.Write(ctx, doc)
}
