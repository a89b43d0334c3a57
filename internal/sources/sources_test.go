package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"

	"perfscore/internal/config"
	"perfscore/internal/metrics"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestCSVProviderSemicolonAndBOM(t *testing.T) {
	path := writeFile(t, "kpi.csv", "\ufeffEquipe;Indicador;Meta;Realizado\n"+
		"CONSULTORIA;Receita;\"R$ 1.000,00\";\"R$ 900,00\"\n"+
		";;;\n"+
		"VENDAS;Contratos;10;7\n")

	p := &CSVProvider{Feed: metrics.SourceKPI, Path: path, HeaderRows: 1}
	rows, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"CONSULTORIA", "Receita", "R$ 1.000,00", "R$ 900,00"},
		{"VENDAS", "Contratos", "10", "7"},
	}, rows)
}

func TestCSVProviderExplicitComma(t *testing.T) {
	path := writeFile(t, "okr.csv", "a,b;c\n")
	p := &CSVProvider{Feed: metrics.SourceOKR, Path: path, Comma: ';'}
	rows, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a,b", "c"}}, rows)
}

func TestCSVProviderMissingFile(t *testing.T) {
	p := &CSVProvider{Feed: metrics.SourceProject, Path: filepath.Join(t.TempDir(), "none.csv")}
	rows, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestXLSXProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Equipe", "Projeto", "Chave", "Data", "Planejado", "Realizado"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"COMERCIAL", "Novo CRM", "P-1", "28/02/2024", "80%", "60%"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	p := &XLSXProvider{Feed: metrics.SourceProject, Path: path, HeaderRows: 1}
	rows, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"COMERCIAL", "Novo CRM", "P-1", "28/02/2024", "80%", "60%"}}, rows)

	p.Sheet = "Missing"
	_, err = p.Fetch(context.Background())
	assert.ErrorContains(t, err, `sheet "Missing" not found`)
}

func TestSheetsProvider(t *testing.T) {
	var gotPath, gotRender string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRender = r.URL.Query().Get("valueRenderOption")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "range": "OKR!A1:K3",
  "majorDimension": "ROWS",
  "values": [
    ["Equipe", "Objetivo", "KR"],
    ["CONSULTORIA", "Crescer", "Novos clientes", "KR1", "", "", "10", 12],
    []
  ]
}`))
	}))
	defer srv.Close()

	p := &SheetsProvider{
		Feed:          metrics.SourceOKR,
		SpreadsheetID: "sheet-1",
		Range:         "OKR!A1:K",
		HeaderRows:    1,
		ClientOptions: []option.ClientOption{
			option.WithEndpoint(srv.URL + "/"),
			option.WithHTTPClient(srv.Client()),
		},
	}
	rows, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"CONSULTORIA", "Crescer", "Novos clientes", "KR1", "", "", "10", "12"},
	}, rows)
	assert.True(t, strings.HasPrefix(gotPath, "/v4/spreadsheets/sheet-1/values/"), gotPath)
	assert.Equal(t, "FORMATTED_VALUE", gotRender)
}

type stubProvider struct {
	src  metrics.Source
	rows [][]string
	err  error
}

func (s stubProvider) Name() string           { return "stub" }
func (s stubProvider) Source() metrics.Source { return s.src }
func (s stubProvider) Fetch(context.Context) ([][]string, error) {
	return s.rows, s.err
}

func TestCollectAllKeepsProviderOrder(t *testing.T) {
	rows, stats, err := CollectAll(context.Background(), []Provider{
		stubProvider{src: metrics.SourceKPI, rows: [][]string{{"k1"}, {"k2"}}},
		stubProvider{src: metrics.SourceOKR},
		stubProvider{src: metrics.SourceProject, rows: [][]string{{"p1"}}},
	})
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, metrics.SourceKPI, rows[0].Source)
	assert.Equal(t, []string{"k2"}, rows[1].Cells)
	assert.Equal(t, metrics.SourceProject, rows[2].Source)
	assert.Equal(t, []FeedStat{
		{Source: metrics.SourceKPI, Provider: "stub", Rows: 2},
		{Source: metrics.SourceOKR, Provider: "stub", Rows: 0},
		{Source: metrics.SourceProject, Provider: "stub", Rows: 1},
	}, stats)
}

func TestCollectAllFailsOnProviderError(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := CollectAll(context.Background(), []Provider{
		stubProvider{src: metrics.SourceKPI},
		stubProvider{src: metrics.SourceOKR, err: boom},
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "stub okr feed")
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Feeds["kpi"] = config.FeedConfig{Kind: "csv", Path: "feeds/kpi.csv", Delimiter: ";", HeaderRows: 2}
	cfg.Feeds["okr"] = config.FeedConfig{Kind: "sheets", SpreadsheetID: "abc", Range: "OKR!A2:K", CredentialsFile: "creds.json"}
	cfg.Feeds["project"] = config.FeedConfig{Kind: "xlsx", Path: "feeds/project.xlsx", Sheet: "Projetos"}

	resolve := func(p string) (string, error) { return "/ws/" + p, nil }
	providers, err := FromConfig(cfg, resolve)
	require.NoError(t, err)
	require.Len(t, providers, 3)

	csvP, ok := providers[0].(*CSVProvider)
	require.True(t, ok)
	assert.Equal(t, &CSVProvider{Feed: metrics.SourceKPI, Path: "/ws/feeds/kpi.csv", HeaderRows: 2, Comma: ';'}, csvP)

	sheetsP, ok := providers[1].(*SheetsProvider)
	require.True(t, ok)
	assert.Equal(t, "/ws/creds.json", sheetsP.CredentialsFile)
	assert.Equal(t, "abc", sheetsP.SpreadsheetID)

	xlsxP, ok := providers[2].(*XLSXProvider)
	require.True(t, ok)
	assert.Equal(t, "Projetos", xlsxP.Sheet)
	assert.Equal(t, metrics.SourceProject, xlsxP.Source())
}

func TestFromConfigUnknownKind(t *testing.T) {
	cfg := config.Default()
	cfg.Feeds["kpi"] = config.FeedConfig{Kind: "ftp"}
	_, err := FromConfig(cfg, nil)
	assert.ErrorContains(t, err, `kpi feed: unknown feed kind "ftp"`)
}
