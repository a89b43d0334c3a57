package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"
)

func runAudit(args []string, workspacePath string) error {
	if len(args) == 0 || isHelp(args[0]) {
		return fmt.Errorf("%s audit: missing subcommand", appName)
	}
	switch args[0] {
	case "tail":
		return runAuditTail(args[1:], workspacePath)
	default:
		return fmt.Errorf("%s audit: unknown subcommand %q", appName, args[0])
	}
}

func runAuditTail(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("audit tail", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	limit := fs.Int("limit", 20, "Number of events to show")
	auditDB := fs.String("audit-db", "", "Path to audit SQLite DB (default: <workspace>/audit/audit.sqlite)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := openSession(workspacePath, *auditDB)
	if err != nil {
		return err
	}
	defer s.close()

	events, err := s.audit.Recent(context.Background(), *limit)
	if err != nil {
		return err
	}
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		fmt.Fprintf(os.Stdout, "%s  %s  %-28s %s\n",
			ev.TS.Local().Format(time.DateTime), shortID(ev.RunID), ev.Type, string(ev.Payload))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
