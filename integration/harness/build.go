package harness

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

// EnvBinary points the smoke tests at a prebuilt perfscore binary.
const EnvBinary = "PERFSCORE_TEST_BIN"

var (
	rootOnce sync.Once
	rootDir  string
	rootErr  error

	binOnce sync.Once
	binPath string
	binErr  error
)

// RepoRoot returns the directory holding the module's go.mod.
func RepoRoot(t *testing.T) string {
	t.Helper()
	rootOnce.Do(func() {
		_, file, _, ok := runtime.Caller(0)
		if !ok {
			rootErr = fmt.Errorf("runtime.Caller failed")
			return
		}
		rootDir, rootErr = findModuleRoot(filepath.Dir(file))
	})
	if rootErr != nil {
		t.Fatalf("resolve repo root: %v", rootErr)
	}
	return rootDir
}

func findModuleRoot(dir string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod above %s", dir)
		}
		dir = parent
	}
}

// BuildBinary returns the perfscore binary, compiling ./cmd/perfscore once per
// test process unless EnvBinary names an existing one.
func BuildBinary(t *testing.T) string {
	t.Helper()
	if prebuilt := os.Getenv(EnvBinary); prebuilt != "" {
		if _, err := os.Stat(prebuilt); err != nil {
			t.Fatalf("%s: %v", EnvBinary, err)
		}
		return prebuilt
	}

	root := RepoRoot(t)
	binOnce.Do(func() {
		dir, err := os.MkdirTemp("", "perfscore-bin-")
		if err != nil {
			binErr = fmt.Errorf("create temp dir: %w", err)
			return
		}
		out := filepath.Join(dir, "perfscore")
		if runtime.GOOS == "windows" {
			out += ".exe"
		}
		cmd := exec.Command("go", "build", "-trimpath", "-o", out, "./cmd/perfscore")
		cmd.Dir = root
		if combined, err := cmd.CombinedOutput(); err != nil {
			binErr = fmt.Errorf("go build: %w\n%s", err, combined)
			return
		}
		binPath = out
	})
	if binErr != nil {
		t.Fatalf("build perfscore binary: %v", binErr)
	}
	return binPath
}
