package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// StoreSet is a deduplicated set of retail chain names stored as a JSON array.
// The zero value is an empty set.
type StoreSet []string

// NewStoreSet builds a set from the given names, dropping blanks and duplicates.
func NewStoreSet(names ...string) StoreSet {
	set := StoreSet{}
	for _, name := range names {
		set = set.With(name)
	}
	return set
}

// With returns the set including name. The receiver is not modified when the
// name is blank or already present.
func (s StoreSet) With(name string) StoreSet {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || s.Contains(trimmed) {
		return s
	}
	return append(s, trimmed)
}

// Union merges other into a new set.
func (s StoreSet) Union(other StoreSet) StoreSet {
	merged := make(StoreSet, 0, len(s)+len(other))
	merged = append(merged, s...)
	for _, name := range other {
		merged = merged.With(name)
	}
	return merged
}

// Contains reports membership, case-insensitively.
func (s StoreSet) Contains(name string) bool {
	for _, existing := range s {
		if strings.EqualFold(existing, name) {
			return true
		}
	}
	return false
}

// Sorted returns a copy in lexical order, for stable display and tests.
func (s StoreSet) Sorted() []string {
	out := make([]string, len(s))
	copy(out, s)
	sort.Strings(out)
	return out
}

// Value implements driver.Valuer, serializing to JSON text.
func (s StoreSet) Value() (driver.Value, error) {
	if s == nil {
		s = StoreSet{}
	}
	raw, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner for TEXT/BLOB JSON columns.
func (s *StoreSet) Scan(src any) error {
	if src == nil {
		*s = StoreSet{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported store set source %T", src)
	}
	if len(raw) == 0 {
		*s = StoreSet{}
		return nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return fmt.Errorf("decoding store set: %w", err)
	}
	*s = NewStoreSet(names...)
	return nil
}
