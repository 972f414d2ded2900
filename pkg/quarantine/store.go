// Package quarantine provides the append-only quarantine stream: a single
// run's sidelined records, retained with enough provenance to audit or
// reprocess without consulting any other store. A new run always starts a
// fresh stream.
package quarantine

import (
	"sort"

	"github.com/hikmetpinarbas/hpfa-go/pkg/canonical"
)

// Store collects QuarantineItems for the lifetime of one run. It is
// intentionally not safe for concurrent use without external
// synchronization, matching the single-threaded-per-stream core model.
type Store struct {
	items []canonical.QuarantineItem
}

// NewStore constructs an empty quarantine stream.
func NewStore() *Store {
	return &Store{}
}

// Put appends an item. Items are never deleted or rewritten.
func (s *Store) Put(item canonical.QuarantineItem) {
	s.items = append(s.items, item)
}

// PutAll appends every item in items, preserving order.
func (s *Store) PutAll(items []canonical.QuarantineItem) {
	s.items = append(s.items, items...)
}

// All returns every item appended so far, in append order.
func (s *Store) All() []canonical.QuarantineItem {
	out := make([]canonical.QuarantineItem, len(s.items))
	copy(out, s.items)
	return out
}

// ByReason returns items matching reason, in append order.
func (s *Store) ByReason(reason canonical.QuarantineReason) []canonical.QuarantineItem {
	var out []canonical.QuarantineItem
	for _, it := range s.items {
		if it.Reason == reason {
			out = append(out, it)
		}
	}
	return out
}

// CountByProviderAction groups the items quarantined under reason by
// provider_action and returns the count for each.
func (s *Store) CountByProviderAction(reason canonical.QuarantineReason) map[string]int {
	counts := map[string]int{}
	for _, it := range s.items {
		if it.Reason != reason {
			continue
		}
		counts[it.ProviderAction]++
	}
	return counts
}

// ProviderActions returns the distinct provider_action values quarantined
// under reason, sorted for deterministic iteration.
func (s *Store) ProviderActions(reason canonical.QuarantineReason) []string {
	seen := map[string]bool{}
	for _, it := range s.items {
		if it.Reason == reason {
			seen[it.ProviderAction] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the total number of quarantined items.
func (s *Store) Len() int { return len(s.items) }
