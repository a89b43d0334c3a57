package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"perfscore/integration/harness"
)

func TestInitSmoke(t *testing.T) {
	cli := harness.NewCLI(t)
	workspaceRoot := filepath.Join(t.TempDir(), "workspace-init")

	cli.MustRun("init", "--workspace", workspaceRoot)

	paths := []string{
		filepath.Join(workspaceRoot, "feeds"),
		filepath.Join(workspaceRoot, "reports"),
		filepath.Join(workspaceRoot, "audit"),
		filepath.Join(workspaceRoot, "perfscore.yml"),
		filepath.Join(workspaceRoot, "teams.yml"),
		filepath.Join(workspaceRoot, "feeds", "kpi.csv"),
		filepath.Join(workspaceRoot, "feeds", "okr.csv"),
		filepath.Join(workspaceRoot, "feeds", "project.csv"),
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("missing init path %s: %v", path, err)
		}
	}

	auditPath := filepath.Join(workspaceRoot, "audit", "audit.sqlite")
	requireAuditEvents(t, auditPath, []string{
		"workspace_init_started",
		"workspace_init_finished",
	})

	// Running init again keeps the files it already wrote.
	if err := os.WriteFile(filepath.Join(workspaceRoot, "teams.yml"), []byte("teams: []\n"), 0o644); err != nil {
		t.Fatalf("edit teams.yml: %v", err)
	}
	cli.MustRun("init", "--workspace", workspaceRoot)
	data, err := os.ReadFile(filepath.Join(workspaceRoot, "teams.yml"))
	if err != nil {
		t.Fatalf("read teams.yml: %v", err)
	}
	if string(data) != "teams: []\n" {
		t.Fatalf("init overwrote teams.yml:\n%s", data)
	}

	// A fresh workspace refreshes cleanly with header-only feeds.
	res := cli.MustRun("refresh", "--workspace", workspaceRoot, "--period", "2024")
	if !strings.Contains(res.Stdout, "0/0 teams at or above 80%") {
		t.Fatalf("expected empty headline\n%s", res)
	}
}
