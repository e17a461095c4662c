package repo

import (
	"encoding/json"
	"fmt"

	"zebracli/internal/domain"
)

type timesheetRecord struct {
	UUID              string           `json:"uuid"`
	ProjectID         domain.EntityKey `json:"projectId"`
	Activity          domain.Activity  `json:"activity"`
	Description       string           `json:"description"`
	ClientDescription string           `json:"clientDescription"`
	Time              float64          `json:"time"`
	Date              string           `json:"date"`
	Role              *domain.Role     `json:"role"`
	IndividualAction  bool             `json:"individualAction"`
	FrameUUIDs        []string         `json:"frameUuids"`
	ZebraID           *int             `json:"zebraId"`
	UpdatedAt         int64            `json:"updatedAt"`
	// Records written before the flag existed have no doNotSync and load as false.
	DoNotSync bool `json:"doNotSync"`
}

func encodeTimesheet(ts domain.Timesheet) timesheetRecord {
	frames := make([]string, len(ts.FrameUUIDs))
	for i, id := range ts.FrameUUIDs {
		frames[i] = id.Hex()
	}
	return timesheetRecord{
		UUID:              ts.UUID.Hex(),
		ProjectID:         ts.ProjectKey(),
		Activity:          ts.Activity,
		Description:       ts.Description,
		ClientDescription: ts.ClientDescription,
		Time:              ts.Time,
		Date:              ts.Date.Format(domain.DateLayout),
		Role:              ts.Role,
		IndividualAction:  ts.IndividualAction,
		FrameUUIDs:        frames,
		ZebraID:           ts.ZebraID,
		UpdatedAt:         epoch(ts.UpdatedAt),
		DoNotSync:         ts.DoNotSync,
	}
}

func marshalTimesheet(ts domain.Timesheet) (json.RawMessage, error) {
	raw, err := json.Marshal(encodeTimesheet(ts))
	if err != nil {
		return nil, fmt.Errorf("marshal timesheet %s: %w", ts.UUID, err)
	}
	return raw, nil
}

func decodeTimesheet(raw json.RawMessage) (domain.Timesheet, error) {
	var rec timesheetRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Timesheet{}, fmt.Errorf("%w: timesheet: %v", domain.ErrDeserialization, err)
	}
	if rec.UUID == "" {
		return domain.Timesheet{}, fmt.Errorf("%w: timesheet record lacks uuid", domain.ErrDeserialization)
	}
	date, err := domain.ParseDate(rec.Date)
	if err != nil {
		return domain.Timesheet{}, fmt.Errorf("%w: timesheet %s: %v", domain.ErrDeserialization, rec.UUID, err)
	}
	frames := make([]domain.Identifier, 0, len(rec.FrameUUIDs))
	for _, s := range rec.FrameUUIDs {
		id, err := domain.ParseIdentifier(s)
		if err != nil {
			return domain.Timesheet{}, fmt.Errorf("%w: timesheet %s: %v", domain.ErrDeserialization, rec.UUID, err)
		}
		frames = append(frames, id)
	}
	ts, err := domain.NewTimesheet(domain.TimesheetParams{
		UUID:              domain.Identifier(rec.UUID),
		Activity:          rec.Activity,
		Description:       rec.Description,
		ClientDescription: rec.ClientDescription,
		Time:              rec.Time,
		Date:              date,
		Role:              rec.Role,
		IndividualAction:  rec.IndividualAction,
		FrameUUIDs:        frames,
		ZebraID:           rec.ZebraID,
		UpdatedAt:         fromEpoch(rec.UpdatedAt),
		DoNotSync:         rec.DoNotSync,
	})
	if err != nil {
		return domain.Timesheet{}, fmt.Errorf("%w: timesheet %s: %v", domain.ErrDeserialization, rec.UUID, err)
	}
	return ts, nil
}
