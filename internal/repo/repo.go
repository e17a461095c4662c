// Package repo persists frames, timesheets, projects and the Zebra user on
// top of the store package, and mirrors timesheets to the Zebra API.
package repo

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"time"

	"zebracli/internal/domain"
	"zebracli/internal/store"
)

// ErrNotFound is returned by single-record lookups.
var ErrNotFound = domain.ErrNotFound

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func loggerOr(l *log.Logger) *log.Logger {
	if l == nil {
		return discardLogger()
	}
	return l
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}

// readKey decodes one record of a collection into v; found is false when the
// key is absent.
func readKey(ctx context.Context, s store.Store, key string, v any) (found bool, err error) {
	doc, err := s.Read(ctx)
	if err != nil {
		return false, err
	}
	raw, ok := doc[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, err
	}
	return true, nil
}

func epoch(t time.Time) int64 {
	return t.Unix()
}

func epochPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.Unix()
	return &v
}

func fromEpoch(v int64) time.Time {
	return time.Unix(v, 0).UTC()
}

func fromEpochPtr(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := fromEpoch(*v)
	return &t
}
