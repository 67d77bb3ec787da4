// Package ipindex implements the per-tenant-VPN IP range index used to
// resolve a peer's source/destination location during syslog enrichment.
//
// Ranges are expected to overlap (a site /24 nested inside a region /16);
// Find resolves overlaps with a most-specific-wins policy, and lets the
// caller exclude its own location so self-loop annotations are never
// produced.
package ipindex

import (
	"sort"
	"sync"

	"github.com/netleaf/telemetry/pkg/util"
)

// Network is one IP range entry, tagged with the site that advertises it.
type Network struct {
	Begin    uint32
	End      uint32
	Location string
}

func (n Network) size() uint32 {
	return n.End - n.Begin
}

// Index is the ordered-per-key IP range table described in spec §4.2.
// One Index is shared process-wide; Find is lock-free apart from the
// RWMutex read lock, so enrichment never blocks on other readers.
type Index struct {
	mu   sync.RWMutex
	byKey map[string][]Network
}

// New creates an empty Index.
func New() *Index {
	return &Index{byKey: make(map[string][]Network)}
}

// Add decomposes a CIDR (given as network/mask dotted quads) into a
// [begin,end] range and inserts it into the ordered vector for key,
// keeping the slice sorted by Begin ascending (insertion point found by
// upper-bound, matching the original's std::upper_bound insertion).
func (idx *Index) Add(key, network, mask, location string) error {
	begin, end, err := util.CIDRToRange(network, mask)
	if err != nil {
		return err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	list := idx.byKey[key]
	pos := sort.Search(len(list), func(i int) bool { return list[i].Begin > begin })
	list = append(list, Network{})
	copy(list[pos+1:], list[pos:])
	list[pos] = Network{Begin: begin, End: end, Location: location}
	idx.byKey[key] = list
	return nil
}

// Find resolves the most-specific non-excluded network containing ip
// under key, returning its location or "" if nothing matches.
//
// Candidates are walked backwards from the upper-bound position (the
// insertion point for ip, which is never itself a valid starting
// position since Begin <= ip is required); among all containing entries
// the one with the smallest (End-Begin) wins, per spec invariant 1.
func (idx *Index) Find(ip, key, excludeLocation string) string {
	addr, err := util.IPToUint32(ip)
	if err != nil {
		return ""
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	list := idx.byKey[key]
	upper := sort.Search(len(list), func(i int) bool { return list[i].Begin > addr })

	best := -1
	var bestSize uint32
	for i := upper - 1; i >= 0; i-- {
		n := list[i]
		if addr < n.Begin || addr > n.End {
			continue
		}
		if n.Location == excludeLocation {
			continue
		}
		if best == -1 || n.size() < bestSize {
			best = i
			bestSize = n.size()
		}
	}
	if best == -1 {
		return ""
	}
	return list[best].Location
}

// Purge removes every entry tagged with location, from every key. Safe
// to call concurrently with Find (which only takes the read lock); Add
// callers racing a Purge for the same location observe one consistent
// ordering, enforced by the shared mutex.
func (idx *Index) Purge(location string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for key, list := range idx.byKey {
		kept := list[:0]
		for _, n := range list {
			if n.Location != location {
				kept = append(kept, n)
			}
		}
		idx.byKey[key] = kept
	}
}
