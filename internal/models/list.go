package models

import (
	"encoding/json"
	"fmt"
)

// DecodeEach unmarshals every element of a JSON array on its own, so one
// entry without an id does not cost the rest of the snapshot. Entries that
// fail are reported in skipped with their index.
func DecodeEach[T any](raw []json.RawMessage) (items []T, skipped []error) {
	items = make([]T, 0, len(raw))
	for i, entry := range raw {
		var v T
		if err := json.Unmarshal(entry, &v); err != nil {
			skipped = append(skipped, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		items = append(items, v)
	}
	return items, skipped
}
