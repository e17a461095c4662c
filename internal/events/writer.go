// Package events keeps a bounded journal of tracker activity: frames started
// and stopped, timesheets pushed and pulled.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"zebracli/internal/store"
)

// DefaultLimit is the number of events kept when Writer.Limit is zero.
const DefaultLimit = 500

type Writer struct {
	Store store.Store
	Now   func() time.Time
	Limit int
}

type EventPayload map[string]any

type Event struct {
	ID         int64        `json:"id"`
	TS         string       `json:"ts"`
	Type       string       `json:"type"`
	EntityKind string       `json:"entity_kind"`
	EntityID   string       `json:"entity_id,omitempty"`
	Payload    EventPayload `json:"payload"`
}

// Append records an event and drops the oldest ones beyond the limit.
func (w Writer) Append(ctx context.Context, evtType, entityKind, entityID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	if payload == nil {
		payload = EventPayload{}
	}
	doc, err := w.Store.Read(ctx)
	if err != nil {
		return err
	}
	events := decode(doc)
	var next int64 = 1
	if len(events) > 0 {
		next = events[len(events)-1].ID + 1
	}
	evt := Event{
		ID:         next,
		TS:         w.Now().UTC().Format(time.RFC3339),
		Type:       evtType,
		EntityKind: entityKind,
		EntityID:   entityID,
		Payload:    payload,
	}
	if err := doc.Put(key(evt.ID), evt); err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	events = append(events, evt)
	limit := w.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	for len(events) > limit {
		delete(doc, key(events[0].ID))
		events = events[1:]
	}
	return w.Store.Write(ctx, doc)
}

// Latest returns up to n events, newest first. n <= 0 returns all of them.
func (w Writer) Latest(ctx context.Context, n int) ([]Event, error) {
	doc, err := w.Store.Read(ctx)
	if err != nil {
		return nil, err
	}
	events := decode(doc)
	out := make([]Event, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		if n > 0 && len(out) == n {
			break
		}
		out = append(out, events[i])
	}
	return out, nil
}

// decode returns the readable events oldest first.
func decode(doc store.Document) []Event {
	events := make([]Event, 0, len(doc))
	for _, raw := range doc {
		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			continue
		}
		events = append(events, evt)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events
}

func key(id int64) string {
	return strconv.FormatInt(id, 10)
}
