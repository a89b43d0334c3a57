package teams

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfscore/internal/metrics"
)

const aliasYAML = `teams:
  - id: Consultoria
    aliases:
      kpi: [CONSULTORIA PERFORMANCE, "  consultoria perf "]
      okr: [CONSULTORIA]
  - id: FINANCEIRO
    aliases:
      okr: [BACKOFFICE]
  - id: CONTROLADORIA
    aliases:
      okr: [BACKOFFICE]
excluded:
  okr: [DIRETORIA]
`

func loadFixture(t *testing.T) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "teams.yml")
	require.NoError(t, os.WriteFile(path, []byte(aliasYAML), 0o644))
	reg, err := LoadFile(path)
	require.NoError(t, err)
	return reg
}

func TestRegistryResolve(t *testing.T) {
	reg := loadFixture(t)

	res := reg.Resolve(metrics.SourceKPI, "consultoria performance")
	assert.Equal(t, StatusMapped, res.Status)
	assert.Equal(t, []string{"CONSULTORIA"}, res.Teams)

	res = reg.Resolve(metrics.SourceKPI, " Consultoria Perf\t")
	assert.Equal(t, []string{"CONSULTORIA"}, res.Teams)

	// Only the ends are trimmed; inner spacing must match exactly.
	res = reg.Resolve(metrics.SourceKPI, "CONSULTORIA  PERF")
	assert.Equal(t, StatusUnknown, res.Status)
	assert.Equal(t, []string{"CONSULTORIA  PERF"}, res.Teams)

	res = reg.Resolve(metrics.SourceOKR, "BackOffice")
	assert.Equal(t, StatusMapped, res.Status)
	assert.Equal(t, []string{"CONTROLADORIA", "FINANCEIRO"}, res.Teams)

	res = reg.Resolve(metrics.SourceOKR, " DIRETORIA ")
	assert.Equal(t, StatusExcluded, res.Status)
	assert.Empty(t, res.Teams)

	res = reg.Resolve(metrics.SourceProject, "  Suporte ")
	assert.Equal(t, StatusUnknown, res.Status)
	assert.Equal(t, []string{"Suporte"}, res.Teams)

	// Team ids match themselves in every feed.
	res = reg.Resolve(metrics.SourceProject, "financeiro")
	assert.Equal(t, []string{"FINANCEIRO"}, res.Teams)
}

func TestRegistryAccessors(t *testing.T) {
	reg := loadFixture(t)

	var ids []string
	for _, team := range reg.Teams() {
		ids = append(ids, team.ID)
	}
	assert.Equal(t, []string{"CONSULTORIA", "CONTROLADORIA", "FINANCEIRO"}, ids)

	assert.Equal(t, []string{"CONSULTORIA", "CONSULTORIA PERF", "CONSULTORIA PERFORMANCE"}, reg.Aliases("CONSULTORIA", metrics.SourceKPI))
	assert.True(t, reg.IsCanonical("FINANCEIRO"))
	assert.False(t, reg.IsCanonical("Suporte"))

	var nilReg *Registry
	assert.Equal(t, StatusUnknown, nilReg.Resolve(metrics.SourceKPI, "X").Status)
	assert.False(t, nilReg.IsCanonical("X"))
}

func TestParseValidation(t *testing.T) {
	data := []byte(`teams:
  - id: ""
  - id: A
    aliases:
      kpi: [X, x]
      budget: [Y]
  - id: a
  - id: B
    aliases:
      okr: [GONE]
excluded:
  okr: [GONE]
`)
	_, err := Parse(data, "teams.yml")
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	var fields []string
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{
		"teams[0].id",
		"teams[1].aliases.budget",
		"teams[1].aliases.kpi",
		"teams[2].id",
		"teams[3].aliases.okr",
	}, fields)
	assert.Contains(t, err.Error(), "teams.yml: teams[2].id: duplicate team id \"A\"")
}

func TestResolveRecordsFanOut(t *testing.T) {
	reg := loadFixture(t)
	records := []metrics.MetricRecord{
		{Source: metrics.SourceOKR, SourceTeamName: "BACKOFFICE", IndicatorName: "I"},
		{Source: metrics.SourceOKR, SourceTeamName: "DIRETORIA", IndicatorName: "I"},
		{Source: metrics.SourceKPI, SourceTeamName: "Consultoria Performance", IndicatorName: "I"},
		{Source: metrics.SourceProject, SourceTeamName: "Suporte", IndicatorName: "P"},
		{Source: metrics.SourceProject, SourceTeamName: "Suporte", IndicatorName: "Q"},
	}
	out, stats := ResolveRecords(records, reg)

	var teams []string
	for _, r := range out {
		teams = append(teams, r.CanonicalTeam)
	}
	assert.Equal(t, []string{"CONTROLADORIA", "FINANCEIRO", "CONSULTORIA", "Suporte", "Suporte"}, teams)
	assert.Equal(t, 2, stats.Mapped)
	assert.Equal(t, 1, stats.FanOut)
	assert.Equal(t, 1, stats.Excluded)
	assert.Equal(t, map[metrics.Source][]string{metrics.SourceProject: {"Suporte"}}, stats.Unknown)
	assert.Empty(t, records[0].CanonicalTeam, "input is not modified")
}

func TestNewFromDefinitions(t *testing.T) {
	reg, err := New([]CanonicalTeam{
		{ID: "vendas", AliasesBySource: map[metrics.Source][]string{metrics.SourceKPI: {"COMERCIAL"}}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"VENDAS"}, reg.Resolve(metrics.SourceKPI, "comercial").Teams)
	assert.Equal(t, []string{"VENDAS"}, reg.Resolve(metrics.SourceOKR, "Vendas").Teams)
}
