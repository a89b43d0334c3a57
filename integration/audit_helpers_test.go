package integration_test

import (
	"context"
	"strings"
	"testing"

	"perfscore/internal/audit"
)

func loadAuditEvents(t *testing.T, dbPath string) []audit.Event {
	t.Helper()
	events, err := audit.NewLogger(dbPath).Recent(context.Background(), 1000)
	if err != nil {
		t.Fatalf("read audit events from %s: %v", dbPath, err)
	}
	return events
}

// requireAuditEvents checks that every wanted type was logged and that each
// *_finished event shares its run id with a matching *_started event.
func requireAuditEvents(t *testing.T, dbPath string, want []string) {
	t.Helper()
	events := loadAuditEvents(t, dbPath)

	runs := make(map[string]map[string]bool)
	for _, ev := range events {
		if runs[ev.Type] == nil {
			runs[ev.Type] = make(map[string]bool)
		}
		runs[ev.Type][ev.RunID] = true
	}
	for _, eventType := range want {
		if len(runs[eventType]) == 0 {
			t.Fatalf("missing audit event %s in %s", eventType, dbPath)
		}
		command, ok := strings.CutSuffix(eventType, "_finished")
		if !ok {
			continue
		}
		for runID := range runs[eventType] {
			if !runs[command+"_started"][runID] {
				t.Fatalf("%s for run %s has no %s_started", eventType, runID, command)
			}
		}
	}
}
