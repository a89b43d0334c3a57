package teams

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"perfscore/internal/metrics"
)

type rawRegistry struct {
	Teams    []rawTeam           `yaml:"teams"`
	Excluded map[string][]string `yaml:"excluded"`
}

type rawTeam struct {
	ID      string              `yaml:"id"`
	Aliases map[string][]string `yaml:"aliases"`
}

// ValidationError captures a single alias-table problem.
type ValidationError struct {
	File    string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
}

// ValidationErrors aggregates multiple validation problems.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "\n")
}

// LoadFile reads and validates an alias table from YAML.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias table: %w", err)
	}
	return Parse(data, path)
}

// Parse validates YAML alias-table data. source names the origin in errors.
func Parse(data []byte, source string) (*Registry, error) {
	var raw rawRegistry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, ValidationErrors{{File: source, Field: "yaml", Message: err.Error()}}
	}

	var errs ValidationErrors
	teams := make([]CanonicalTeam, 0, len(raw.Teams))
	for idx, rt := range raw.Teams {
		path := fmt.Sprintf("teams[%d]", idx)
		team := CanonicalTeam{
			ID:              NormalizeName(rt.ID),
			AliasesBySource: make(map[metrics.Source][]string),
		}
		for srcName, aliases := range rt.Aliases {
			src, err := metrics.ParseSource(srcName)
			if err != nil {
				errs = append(errs, ValidationError{File: source, Field: path + ".aliases." + srcName, Message: err.Error()})
				continue
			}
			team.AliasesBySource[src] = aliases
		}
		teams = append(teams, team)
	}

	excluded := make(map[metrics.Source][]string)
	for srcName, names := range raw.Excluded {
		src, err := metrics.ParseSource(srcName)
		if err != nil {
			errs = append(errs, ValidationError{File: source, Field: "excluded." + srcName, Message: err.Error()})
			continue
		}
		excluded[src] = names
	}

	reg, err := build(teams, excluded, source)
	if err != nil {
		if ve, ok := err.(ValidationErrors); ok {
			errs = append(errs, ve...)
		} else {
			return nil, err
		}
	}
	if len(errs) > 0 {
		sortErrors(errs)
		return nil, errs
	}
	return reg, nil
}

// New builds a registry from in-memory definitions.
func New(teams []CanonicalTeam, excluded map[metrics.Source][]string) (*Registry, error) {
	return build(teams, excluded, "registry")
}

func build(teams []CanonicalTeam, excluded map[metrics.Source][]string, source string) (*Registry, error) {
	var errs ValidationErrors
	reg := &Registry{
		index:    make(map[metrics.Source]map[string][]string),
		excluded: make(map[metrics.Source]map[string]struct{}),
		byID:     make(map[string]CanonicalTeam),
	}

	for _, src := range metrics.Sources {
		reg.index[src] = make(map[string][]string)
		reg.excluded[src] = make(map[string]struct{})
		for _, name := range excluded[src] {
			key := NormalizeName(name)
			if key == "" {
				errs = append(errs, ValidationError{File: source, Field: "excluded." + string(src), Message: "empty team name"})
				continue
			}
			reg.excluded[src][key] = struct{}{}
		}
	}

	for idx, team := range teams {
		path := fmt.Sprintf("teams[%d]", idx)
		team.ID = NormalizeName(team.ID)
		if team.ID == "" {
			errs = append(errs, ValidationError{File: source, Field: path + ".id", Message: "is required"})
			continue
		}
		if _, dup := reg.byID[team.ID]; dup {
			errs = append(errs, ValidationError{File: source, Field: path + ".id", Message: fmt.Sprintf("duplicate team id %q", team.ID)})
			continue
		}

		normalized := make(map[metrics.Source][]string, len(team.AliasesBySource))
		for _, src := range metrics.Sources {
			seen := make(map[string]struct{})
			for _, alias := range team.AliasesBySource[src] {
				key := NormalizeName(alias)
				field := fmt.Sprintf("%s.aliases.%s", path, src)
				if key == "" {
					errs = append(errs, ValidationError{File: source, Field: field, Message: "empty alias"})
					continue
				}
				if _, ok := seen[key]; ok {
					errs = append(errs, ValidationError{File: source, Field: field, Message: fmt.Sprintf("alias %q listed twice", key)})
					continue
				}
				if _, ok := reg.excluded[src][key]; ok {
					errs = append(errs, ValidationError{File: source, Field: field, Message: fmt.Sprintf("alias %q is also excluded", key)})
					continue
				}
				seen[key] = struct{}{}
				normalized[src] = append(normalized[src], key)
				reg.index[src][key] = append(reg.index[src][key], team.ID)
			}
			sort.Strings(normalized[src])
		}
		team.AliasesBySource = normalized
		reg.byID[team.ID] = team
		reg.teams = append(reg.teams, team)
	}

	// A team id matches itself in every feed unless that spelling is
	// excluded or already claimed by an explicit alias.
	for _, team := range reg.teams {
		for _, src := range metrics.Sources {
			if _, ok := reg.excluded[src][team.ID]; ok {
				continue
			}
			if _, ok := reg.index[src][team.ID]; ok {
				continue
			}
			reg.index[src][team.ID] = []string{team.ID}
		}
	}

	for _, src := range metrics.Sources {
		for key, ids := range reg.index[src] {
			sort.Strings(ids)
			reg.index[src][key] = ids
		}
	}
	sort.Slice(reg.teams, func(i, j int) bool { return reg.teams[i].ID < reg.teams[j].ID })

	if len(errs) > 0 {
		return nil, errs
	}
	return reg, nil
}

func sortErrors(errs ValidationErrors) {
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Field != errs[j].Field {
			return errs[i].Field < errs[j].Field
		}
		return errs[i].Message < errs[j].Message
	})
}
