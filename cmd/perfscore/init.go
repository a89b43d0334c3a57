package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"perfscore/internal/audit"
	"perfscore/internal/metrics"
	"perfscore/internal/workspace"
)

func runInit(args []string, workspacePath string) (err error) {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(workspacePath) == "" {
		return fmt.Errorf("--workspace is required")
	}

	ws, err := workspace.Create(workspacePath)
	if err != nil {
		return err
	}

	logger := audit.NewLogger(ws.AuditDBPath)
	if err := logger.LogEvent("cli", "workspace_init_started", map[string]any{"workspace": ws.Root}); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}
	var written []string
	defer func() {
		finish := map[string]any{"workspace": ws.Root, "written": written}
		if err != nil {
			finish["error"] = err.Error()
		}
		_ = logger.LogEvent("cli", "workspace_init_finished", finish)
	}()

	files := []struct {
		path     string
		contents string
	}{
		{ws.ConfigPath, configTemplate},
		{ws.TeamsPath, teamsTemplate},
		{ws.FeedPath(metrics.SourceKPI), kpiHeader},
		{ws.FeedPath(metrics.SourceOKR), okrHeader},
		{ws.FeedPath(metrics.SourceProject), projectHeader},
	}
	for _, f := range files {
		created, werr := writeFileIfMissing(f.path, f.contents)
		if werr != nil {
			err = werr
			return err
		}
		if created {
			written = append(written, f.path)
		}
	}

	fmt.Fprintf(os.Stdout, "Initialized workspace: %s\n", ws.Root)
	return nil
}

func writeFileIfMissing(path string, contents string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("ensure dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

const configTemplate = `# Attainment bar, in percent.
bar: 80
# Per-source upper limit applied when indicator results enter an average.
clamp:
  okr: 100
# Measurement mode used when a row carries no recognised mode tag.
modes:
  kpi: ACCUMULATED
  okr: EVOLUTION
  project: EVOLUTION
aliases: teams.yml
timelines: true
logging:
  level: info
  format: console
feeds:
  kpi:
    kind: csv
    path: feeds/kpi.csv
    header_rows: 1
  okr:
    kind: csv
    path: feeds/okr.csv
    header_rows: 1
  project:
    kind: csv
    path: feeds/project.csv
    header_rows: 1
`

const teamsTemplate = `# Canonical teams and the names each feed uses for them. A name listed
# under several teams is counted for each of them.
teams:
  - id: EXAMPLE TEAM
    aliases:
      kpi: [EXAMPLE]
      okr: [EXAMPLE TEAM]
      project: [EXAMPLE]
# Names dropped entirely, per feed.
excluded:
  okr: []
`

const kpiHeader = "team;indicator;key;kind;trend;date;meta;result;objective;mode\n"

const okrHeader = "team;objective;key_result;kr_id;kind;trend;meta;result;date;mode;competency\n"

const projectHeader = "team;project;id;date;planned;realized;mode\n"
