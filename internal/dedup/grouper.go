// Package dedup groups fingerprinted messages into duplicate sets.
package dedup

import (
	"github.com/nhle/dupmail/internal/fingerprint"
)

// DefaultSkipThreshold is the failure count at which a message is left
// out of grouping.
const DefaultSkipThreshold = 2

// Entry is one fingerprinted message.
type Entry struct {
	ID          string
	Failures    int
	Fingerprint fingerprint.Fingerprint
}

// Group is a set of two or more messages sharing a fingerprint. Members
// are in encounter order.
type Group struct {
	Fingerprint fingerprint.Fingerprint
	IDs         []string
}

// Skip records a message excluded for having too many empty fields.
type Skip struct {
	ID       string
	Failures int
}

// Result is the immutable outcome of one grouping pass.
type Result struct {
	Groups  []Group
	Skipped []Skip
	Scanned int
}

// Count returns the number of redundant copies: the sum over groups of
// their size minus one.
func (r *Result) Count() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.IDs) - 1
	}
	return n
}

// IDs returns the member ids of every group.
func (r *Result) IDs() [][]string {
	out := make([][]string, len(r.Groups))
	for i, g := range r.Groups {
		out[i] = append([]string(nil), g.IDs...)
	}
	return out
}

// Grouper folds entries into groups. It is not safe for concurrent use;
// feed it from a single goroutine.
type Grouper struct {
	threshold int
	order     []fingerprint.Fingerprint
	members   map[fingerprint.Fingerprint][]string
	skipped   []Skip
	scanned   int
}

// NewGrouper returns a Grouper that skips entries whose failure count is
// at least threshold.
func NewGrouper(threshold int) *Grouper {
	if threshold < 0 {
		threshold = 0
	}
	return &Grouper{
		threshold: threshold,
		members:   make(map[fingerprint.Fingerprint][]string),
	}
}

// Add folds one entry in. It reports false when the entry was skipped.
func (g *Grouper) Add(e Entry) bool {
	g.scanned++
	if e.Failures >= g.threshold {
		g.skipped = append(g.skipped, Skip{ID: e.ID, Failures: e.Failures})
		return false
	}
	if _, ok := g.members[e.Fingerprint]; !ok {
		g.order = append(g.order, e.Fingerprint)
	}
	g.members[e.Fingerprint] = append(g.members[e.Fingerprint], e.ID)
	return true
}

// Result returns the groups with two or more members, ordered by the
// first appearance of their fingerprint.
func (g *Grouper) Result() *Result {
	res := &Result{
		Skipped: append([]Skip(nil), g.skipped...),
		Scanned: g.scanned,
	}
	for _, fp := range g.order {
		ids := g.members[fp]
		if len(ids) < 2 {
			continue
		}
		res.Groups = append(res.Groups, Group{
			Fingerprint: fp,
			IDs:         append([]string(nil), ids...),
		})
	}
	return res
}
