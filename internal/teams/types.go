package teams

import (
	"sort"
	"strings"

	"perfscore/internal/metrics"
)

// CanonicalTeam is the de-aliased identity used to join the three feeds.
type CanonicalTeam struct {
	ID              string
	AliasesBySource map[metrics.Source][]string
}

// Status tells how a source team name resolved.
type Status string

const (
	StatusMapped   Status = "mapped"
	StatusUnknown  Status = "unknown"
	StatusExcluded Status = "excluded"
)

// Resolution is the outcome of resolving one source team name.
type Resolution struct {
	Teams  []string
	Status Status
}

// Registry is the single alias table, built once and shared read-only.
type Registry struct {
	teams    []CanonicalTeam
	index    map[metrics.Source]map[string][]string
	excluded map[metrics.Source]map[string]struct{}
	byID     map[string]CanonicalTeam
}

// NormalizeName is the match key: trimmed and upper-cased. Inner spacing is
// kept, so "A  B" and "A B" are different spellings.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Resolve maps a source spelling onto canonical team ids. Unmatched names
// fall into an unknown bucket named after the trimmed raw name; excluded
// names resolve to no team.
func (r *Registry) Resolve(source metrics.Source, name string) Resolution {
	key := NormalizeName(name)
	if r != nil {
		if _, ok := r.excluded[source][key]; ok {
			return Resolution{Status: StatusExcluded}
		}
		if ids, ok := r.index[source][key]; ok {
			return Resolution{Teams: append([]string(nil), ids...), Status: StatusMapped}
		}
	}
	return Resolution{Teams: []string{strings.TrimSpace(name)}, Status: StatusUnknown}
}

// Aliases returns the source spellings that resolve to team id.
func (r *Registry) Aliases(id string, source metrics.Source) []string {
	if r == nil {
		return nil
	}
	var out []string
	for name, ids := range r.index[source] {
		for _, candidate := range ids {
			if candidate == id {
				out = append(out, name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Teams returns the configured canonical teams sorted by id.
func (r *Registry) Teams() []CanonicalTeam {
	if r == nil {
		return nil
	}
	return append([]CanonicalTeam(nil), r.teams...)
}

// Lookup returns the canonical team with id, if configured.
func (r *Registry) Lookup(id string) (CanonicalTeam, bool) {
	if r == nil {
		return CanonicalTeam{}, false
	}
	t, ok := r.byID[id]
	return t, ok
}

// IsCanonical reports whether id is a configured team rather than an
// unknown-bucket name.
func (r *Registry) IsCanonical(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}
