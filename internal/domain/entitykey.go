package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Source tells which repository owns an entity.
type Source string

const (
	SourceLocal Source = "local"
	SourceZebra Source = "zebra"
)

// EntityKey identifies a project or activity either by a local Identifier or
// by its integer id in Zebra. The zero value is not a valid key.
type EntityKey struct {
	source Source
	local  Identifier
	remote int
}

// LocalKey returns a key for a locally created entity.
func LocalKey(id Identifier) EntityKey {
	return EntityKey{source: SourceLocal, local: id}
}

// RemoteKey returns a key for an entity owned by Zebra.
func RemoteKey(id int) EntityKey {
	return EntityKey{source: SourceZebra, remote: id}
}

// ParseRemoteKey coerces a numeric string, negative values included, to a remote key.
func ParseRemoteKey(s string) (EntityKey, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return EntityKey{}, fmt.Errorf("%w: remote id %q is not an integer", ErrValidation, s)
	}
	return RemoteKey(n), nil
}

// ParseEntityKey reads a bare key as printed by String: integers are remote
// ids, identifiers are local ids.
func ParseEntityKey(s string) (EntityKey, error) {
	if key, err := ParseRemoteKey(s); err == nil {
		return key, nil
	}
	id, err := ParseIdentifier(s)
	if err != nil {
		return EntityKey{}, fmt.Errorf("%w: %q is neither a zebra id nor a local identifier", ErrValidation, s)
	}
	return LocalKey(id), nil
}

func (k EntityKey) Source() Source { return k.source }
func (k EntityKey) IsLocal() bool  { return k.source == SourceLocal }
func (k EntityKey) IsRemote() bool { return k.source == SourceZebra }
func (k EntityKey) IsZero() bool   { return k.source == "" }

// LocalID returns the identifier of a local key.
func (k EntityKey) LocalID() (Identifier, bool) {
	return k.local, k.IsLocal()
}

// RemoteID returns the zebra id of a remote key.
func (k EntityKey) RemoteID() (int, bool) {
	return k.remote, k.IsRemote()
}

func (k EntityKey) String() string {
	switch k.source {
	case SourceLocal:
		return k.local.Hex()
	case SourceZebra:
		return strconv.Itoa(k.remote)
	default:
		return ""
	}
}

type entityKeyJSON struct {
	Source Source          `json:"source"`
	ID     json.RawMessage `json:"id"`
}

func (k EntityKey) MarshalJSON() ([]byte, error) {
	switch k.source {
	case SourceLocal:
		return json.Marshal(struct {
			Source Source `json:"source"`
			ID     string `json:"id"`
		}{k.source, k.local.Hex()})
	case SourceZebra:
		return json.Marshal(struct {
			Source Source `json:"source"`
			ID     int    `json:"id"`
		}{k.source, k.remote})
	default:
		return []byte("null"), nil
	}
}

func (k *EntityKey) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*k = EntityKey{}
		return nil
	}
	var raw entityKeyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Source {
	case SourceLocal:
		var s string
		if err := json.Unmarshal(raw.ID, &s); err != nil {
			return fmt.Errorf("%w: local key id must be a string", ErrValidation)
		}
		id, err := ParseIdentifier(s)
		if err != nil {
			return err
		}
		*k = LocalKey(id)
	case SourceZebra:
		var n int
		if err := json.Unmarshal(raw.ID, &n); err == nil {
			*k = RemoteKey(n)
			return nil
		}
		var s string
		if err := json.Unmarshal(raw.ID, &s); err != nil {
			return fmt.Errorf("%w: remote key id must be an integer", ErrValidation)
		}
		key, err := ParseRemoteKey(s)
		if err != nil {
			return err
		}
		*k = key
	default:
		return fmt.Errorf("%w: unknown key source %q", ErrValidation, raw.Source)
	}
	return nil
}
