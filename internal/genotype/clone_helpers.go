package genotype

import (
	"fmt"
	"strings"
)

// EvoHistoryEvent records one mutation applied during a genome's lineage,
// along with the element IDs it touched.
type EvoHistoryEvent struct {
	Mutation string
	IDs      []string
}

// MapIDs builds a stable original-ID -> new-ID mapping for ids, skipping
// blanks and duplicates. cloneID (if non-nil) supplies the candidate new ID
// for each original; an empty candidate falls back to a generated one, and a
// candidate that collides with an already-taken ID gets a numeric suffix
// appended.
func MapIDs(ids []string, cloneID func(originalID string, index int) string) map[string]string {
	mapped := make(map[string]string, len(ids))
	taken := make(map[string]struct{}, len(ids))
	for i, rawID := range ids {
		originalID := strings.TrimSpace(rawID)
		if originalID == "" {
			continue
		}
		if _, seen := mapped[originalID]; seen {
			continue
		}

		candidate := ""
		if cloneID != nil {
			candidate = strings.TrimSpace(cloneID(originalID, i))
		}
		if candidate == "" {
			candidate = fallbackMappedID(originalID, i, taken)
		}
		candidate = disambiguateID(candidate, originalID, i, taken)
		mapped[originalID] = candidate
		taken[candidate] = struct{}{}
	}
	return mapped
}

// MapEvoHistory rewrites the element IDs in history through idMap, keeping
// mutation order and passing through any ID absent from the map unchanged.
func MapEvoHistory(history []EvoHistoryEvent, idMap map[string]string) []EvoHistoryEvent {
	if len(history) == 0 {
		return nil
	}
	remapped := make([]EvoHistoryEvent, len(history))
	for i, event := range history {
		remapped[i] = EvoHistoryEvent{
			Mutation: event.Mutation,
			IDs:      remapEventIDs(event.IDs, idMap),
		}
	}
	return remapped
}

func remapEventIDs(ids []string, idMap map[string]string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		if mapped, ok := idMap[id]; ok {
			out[i] = mapped
			continue
		}
		out[i] = id
	}
	return out
}

// fallbackMappedID generates a deterministic candidate when no explicit
// clone-ID function supplied one, disambiguating against anything already
// taken.
func fallbackMappedID(originalID string, index int, taken map[string]struct{}) string {
	base := sanitizeID(originalID)
	if base == "" {
		base = "id"
	}
	candidate := fmt.Sprintf("%s:clone:%d", base, index)
	if _, exists := taken[candidate]; !exists {
		return candidate
	}
	for suffix := 1; ; suffix++ {
		candidate = fmt.Sprintf("%s:clone:%d:%d", base, index, suffix)
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
	}
}

// disambiguateID returns candidate unchanged if it's free, or else appends
// increasing numeric suffixes until one is. An empty candidate defers
// entirely to fallbackMappedID.
func disambiguateID(candidate, originalID string, index int, taken map[string]struct{}) string {
	if candidate == "" {
		return fallbackMappedID(originalID, index, taken)
	}
	if _, exists := taken[candidate]; !exists {
		return candidate
	}
	for suffix := 1; ; suffix++ {
		attempt := fmt.Sprintf("%s:%d", candidate, suffix)
		if _, exists := taken[attempt]; !exists {
			return attempt
		}
	}
}
