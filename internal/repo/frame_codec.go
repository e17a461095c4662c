package repo

import (
	"encoding/json"
	"fmt"

	"zebracli/internal/domain"
)

// frameRecord is the persisted form of a frame; timestamps are epoch seconds.
type frameRecord struct {
	UUID         string          `json:"uuid"`
	Start        int64           `json:"start"`
	Stop         *int64          `json:"stop"`
	Activity     domain.Activity `json:"activity"`
	IsIndividual bool            `json:"isIndividual"`
	Role         *domain.Role    `json:"role"`
	Description  string          `json:"desc"`
	UpdatedAt    int64           `json:"updatedAt"`
}

func encodeFrame(f domain.Frame) frameRecord {
	return frameRecord{
		UUID:         f.UUID.Hex(),
		Start:        epoch(f.StartTime),
		Stop:         epochPtr(f.StopTime),
		Activity:     f.Activity,
		IsIndividual: f.IsIndividual,
		Role:         f.Role,
		Description:  f.Description,
		UpdatedAt:    epoch(f.UpdatedAt),
	}
}

func marshalFrame(f domain.Frame) (json.RawMessage, error) {
	raw, err := json.Marshal(encodeFrame(f))
	if err != nil {
		return nil, fmt.Errorf("marshal frame %s: %w", f.UUID, err)
	}
	return raw, nil
}

// decodeFrame rebuilds a frame, checking every invariant again.
func decodeFrame(raw json.RawMessage) (domain.Frame, error) {
	var rec frameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Frame{}, fmt.Errorf("%w: frame: %v", domain.ErrDeserialization, err)
	}
	if rec.UUID == "" || rec.Start == 0 {
		return domain.Frame{}, fmt.Errorf("%w: frame record lacks uuid or start", domain.ErrDeserialization)
	}
	updated := rec.UpdatedAt
	if updated == 0 {
		updated = rec.Start
	}
	f, err := domain.NewFrame(domain.FrameParams{
		UUID:         domain.Identifier(rec.UUID),
		StartTime:    fromEpoch(rec.Start),
		StopTime:     fromEpochPtr(rec.Stop),
		Activity:     rec.Activity,
		IsIndividual: rec.IsIndividual,
		Role:         rec.Role,
		Description:  rec.Description,
		UpdatedAt:    fromEpoch(updated),
	})
	if err != nil {
		return domain.Frame{}, fmt.Errorf("%w: frame %s: %v", domain.ErrDeserialization, rec.UUID, err)
	}
	return f, nil
}
