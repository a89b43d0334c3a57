package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"testing"
)

// Result is the outcome of one CLI invocation.
type Result struct {
	Args   []string
	Stdout string
	Stderr string
	Code   int
}

func (r Result) String() string {
	return fmt.Sprintf("perfscore %s (exit %d)\nstdout:\n%s\nstderr:\n%s",
		strings.Join(r.Args, " "), r.Code, r.Stdout, r.Stderr)
}

// CLI runs the perfscore binary from a scratch directory, so relative paths
// never land inside the repository.
type CLI struct {
	t   *testing.T
	Bin string
	Dir string
	Env map[string]string
}

// NewCLI builds the binary and returns a runner rooted at a temp directory.
func NewCLI(t *testing.T) *CLI {
	t.Helper()
	return &CLI{t: t, Bin: BuildBinary(t), Dir: t.TempDir()}
}

// WithEnv returns a copy of c that sets the given variables.
func (c *CLI) WithEnv(env map[string]string) *CLI {
	merged := make(map[string]string, len(c.Env)+len(env))
	for k, v := range c.Env {
		merged[k] = v
	}
	for k, v := range env {
		merged[k] = v
	}
	out := *c
	out.Env = merged
	return &out
}

// Run executes the CLI and reports the exit code without failing the test.
func (c *CLI) Run(args ...string) Result {
	c.t.Helper()

	cmd := exec.Command(c.Bin, args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), envList(c.Env)...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := Result{Args: args}
	if err := cmd.Run(); err != nil {
		var ee *exec.ExitError
		if !errors.As(err, &ee) {
			c.t.Fatalf("run %s: %v", c.Bin, err)
		}
		res.Code = ee.ExitCode()
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res
}

// MustRun fails the test unless the CLI exits zero.
func (c *CLI) MustRun(args ...string) Result {
	c.t.Helper()
	res := c.Run(args...)
	if res.Code != 0 {
		c.t.Fatalf("unexpected failure: %s", res)
	}
	return res
}

// envList renders overrides in a stable order; exec keeps the last value of
// a repeated key.
func envList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
