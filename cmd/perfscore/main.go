package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"perfscore/internal/audit"
	"perfscore/internal/config"
	"perfscore/internal/logging"
	"perfscore/internal/workspace"
)

const appName = "perfscore"

func main() {
	flag.String("workspace", "", "Path to workspace root")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s: cross-source performance scorecards\n\n", appName)
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [command] [flags]\n\n", appName)
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  init     Initialize a new workspace")
		fmt.Fprintln(os.Stderr, "  refresh  Fetch feeds and compute scorecards")
		fmt.Fprintln(os.Stderr, "  teams    Inspect the team alias table")
		fmt.Fprintln(os.Stderr, "  report   Compare scorecard reports")
		fmt.Fprintln(os.Stderr, "  audit    Show audit events")
		fmt.Fprintln(os.Stderr, "  help     Show this help")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}

	workspacePath, remaining, err := extractWorkspaceFlag(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	args := remaining
	if len(args) == 0 || isHelp(args[0]) {
		flag.Usage()
		return
	}

	var runErr error
	switch args[0] {
	case "init":
		runErr = runInit(args[1:], workspacePath)
	case "refresh":
		runErr = runRefresh(args[1:], workspacePath)
	case "teams":
		runErr = runTeams(args[1:], workspacePath)
	case "report":
		runErr = runReport(args[1:], workspacePath)
	case "audit":
		runErr = runAudit(args[1:], workspacePath)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(1)
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}

func isHelp(arg string) bool {
	return arg == "help" || arg == "-h" || arg == "--help"
}

func extractWorkspaceFlag(args []string) (string, []string, error) {
	var workspacePath string
	remaining := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--workspace" {
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--workspace requires a value")
			}
			workspacePath = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--workspace=") {
			workspacePath = strings.TrimPrefix(arg, "--workspace=")
			continue
		}
		remaining = append(remaining, arg)
	}
	return workspacePath, remaining, nil
}

// session is what every workspace command needs: paths, configuration, a
// zap logger and an audit logger sharing one run id.
type session struct {
	ws    *workspace.Workspace
	cfg   *config.Config
	log   *zap.Logger
	audit *audit.Logger
}

func openSession(workspacePath, auditDB string) (*session, error) {
	if strings.TrimSpace(workspacePath) == "" {
		return nil, fmt.Errorf("--workspace is required")
	}
	ws, err := workspace.Resolve(workspacePath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(ws.ConfigPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	dbPath := ws.AuditDBPath
	if auditDB != "" {
		if dbPath, err = ws.ResolvePath(auditDB); err != nil {
			return nil, fmt.Errorf("resolve --audit-db: %w", err)
		}
	}
	s := &session{
		ws:    ws,
		cfg:   cfg,
		log:   log.With(zap.String("workspace", ws.Root)),
		audit: audit.NewLogger(dbPath),
	}
	return s, nil
}

func (s *session) close() {
	_ = s.log.Sync()
}

// started records <command>_started and returns a func that records the
// matching _finished event, with an "error" key when err is non-nil.
func (s *session) started(command string, payload map[string]any) func(err error, extra map[string]any) {
	if err := s.audit.LogEvent("cli", command+"_started", payload); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}
	return func(err error, extra map[string]any) {
		finish := map[string]any{"workspace": s.ws.Root}
		for k, v := range extra {
			finish[k] = v
		}
		if err != nil {
			finish["error"] = err.Error()
		}
		_ = s.audit.LogEvent("cli", command+"_finished", finish)
	}
}
