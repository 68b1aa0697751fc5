package issue

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLoggerf("ward.issue")

// Filter is a composable predicate over an Instance. A Collector consults
// every registered Filter before buffering an Instance; any false vote
// drops it.
type Filter func(Instance) bool

// FileFilter passes only instances whose File is in the allowed set; an
// empty set passes everything (no restriction configured).
func FileFilter(allowed map[string]bool) Filter {
	return func(ii Instance) bool {
		if len(allowed) == 0 {
			return true
		}
		return allowed[ii.File]
	}
}

// MinimumSeverityFilter passes only instances at or above min.
func MinimumSeverityFilter(min Severity) Filter {
	return func(ii Instance) bool { return ii.Issue.Severity >= min }
}

// CategoryMaskFilter passes only instances whose Issue.Category intersects
// mask; a zero mask passes everything.
func CategoryMaskFilter(mask Category) Filter {
	return func(ii Instance) bool {
		if mask == 0 {
			return true
		}
		return ii.Issue.Category&mask != 0
	}
}

// Suppressor implements three independent suppression
// mechanisms: a global config suppress list, a global config whitelist
// (non-empty ⇒ only whitelisted types pass), and a per-scope suppression
// set sourced from @suppress doc-comments. Each is consulted independently
// before an Instance reaches the Collector.
type Suppressor struct {
	Suppress      map[string]bool
	Whitelist     map[string]bool
	ScopeSuppress func(issueType string) bool
}

// Allows reports whether ii passes every suppression mechanism.
func (s Suppressor) Allows(ii Instance) bool {
	typ := ii.Issue.Type
	if s.Suppress[typ] {
		return false
	}
	if len(s.Whitelist) > 0 && !s.Whitelist[typ] {
		return false
	}
	if s.ScopeSuppress != nil && s.ScopeSuppress(typ) {
		return false
	}
	return true
}

// AsFilter adapts a Suppressor to the Filter signature so it composes
// uniformly with the file/severity/category filters in a Collector.
func (s Suppressor) AsFilter() Filter { return s.Allows }

func dedupKey(ii Instance) string {
	return fmt.Sprintf("%s\x00%05d\x00%s\x00%s", ii.File, ii.Line, ii.Issue.Type, ii.Message())
}

// Collector buffers passing Instances keyed by (file, zero-padded line,
// type, rendered message) so that Flush produces deterministic,
// duplicate-free output.
type Collector struct {
	filters []Filter
	seen    map[string]bool
	items   []Instance
}

// NewCollector returns a Collector consulting every given filter before
// buffering. Order does not matter; all filters must pass.
func NewCollector(filters ...Filter) *Collector {
	return &Collector{filters: filters, seen: make(map[string]bool)}
}

// Add evaluates every filter against ii and, if all pass and it is not a
// duplicate of an already-buffered instance, appends it.
func (c *Collector) Add(ii Instance) {
	for _, f := range c.filters {
		if !f(ii) {
			return
		}
	}
	key := dedupKey(ii)
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.items = append(c.items, ii)
}

// Len returns the number of buffered (pre-flush) instances.
func (c *Collector) Len() int { return len(c.items) }

// HasIssues reports whether any instance has been buffered — the source of
// the EXIT_ISSUES_FOUND vs EXIT_SUCCESS decision.
func (c *Collector) HasIssues() bool { return len(c.items) > 0 }

// Flush returns every buffered instance sorted lexicographically by
// (file, zero-padded line, type, message), Flush does not
// clear the buffer; callers that want to merge several workers' collectors
// call Flush on each and concatenate before a final sort, or
// simply Add every instance from one collector into a shared one.
func (c *Collector) Flush() []Instance {
	out := make([]Instance, len(c.items))
	copy(out, c.items)
	sort.Slice(out, func(i, j int) bool {
		ki, kj := dedupKey(out[i]), dedupKey(out[j])
		return ki < kj
	})
	log.Debugf("flushed %s issues", humanize.Comma(int64(len(out))))
	return out
}

// Merge copies every instance buffered in other into c, re-running c's own
// filters and dedup logic — the shape the pipeline's worker-merge step
// (internal/pipeline,) uses to fold N workers' private
// collectors into the parent's.
func (c *Collector) Merge(other *Collector) {
	for _, ii := range other.items {
		c.Add(ii)
	}
}
