package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"perfscore/internal/metrics"
)

// Workspace holds the paths a perfscore workspace is made of.
type Workspace struct {
	Root        string
	ConfigPath  string
	TeamsPath   string
	FeedsDir    string
	ReportsDir  string
	AuditDir    string
	AuditDBPath string
}

// Resolve opens an existing workspace directory.
func Resolve(root string) (*Workspace, error) {
	abs, err := absRoot(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root is not a directory: %s", abs)
	}
	return New(abs), nil
}

// Create makes the root and every workspace directory, then opens it.
func Create(root string) (*Workspace, error) {
	abs, err := absRoot(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	ws, err := Resolve(abs)
	if err != nil {
		return nil, err
	}
	if err := ws.EnsureDirs(); err != nil {
		return nil, err
	}
	return ws, nil
}

// New lays out a workspace under an already absolute root.
func New(root string) *Workspace {
	audit := filepath.Join(root, "audit")
	return &Workspace{
		Root:        root,
		ConfigPath:  filepath.Join(root, "perfscore.yml"),
		TeamsPath:   filepath.Join(root, "teams.yml"),
		FeedsDir:    filepath.Join(root, "feeds"),
		ReportsDir:  filepath.Join(root, "reports"),
		AuditDir:    audit,
		AuditDBPath: filepath.Join(audit, "audit.sqlite"),
	}
}

// FeedPath is the default CSV export location for src.
func (w *Workspace) FeedPath(src metrics.Source) string {
	return filepath.Join(w.FeedsDir, string(src)+".csv")
}

// EnsureDirs creates the feed, report and audit directories.
func (w *Workspace) EnsureDirs() error {
	if w == nil {
		return fmt.Errorf("workspace is nil")
	}
	for _, dir := range []string{w.FeedsDir, w.ReportsDir, w.AuditDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure %s: %w", dir, err)
		}
	}
	return nil
}

// ResolvePath makes a configured path absolute. Relative paths are taken
// from the workspace root; "~/" expands to the home directory. Blank stays
// blank.
func (w *Workspace) ResolvePath(path string) (string, error) {
	if w == nil {
		return "", fmt.Errorf("workspace is nil")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	expanded, err := expandHome(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(w.Root, expanded)
	}
	return filepath.Clean(expanded), nil
}

func absRoot(root string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", fmt.Errorf("workspace root is required")
	}
	expanded, err := expandHome(root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve workspace: %w", err)
	}
	return abs, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return "", fmt.Errorf("unsupported home expansion: %s", path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
