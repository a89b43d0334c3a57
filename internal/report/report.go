package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"perfscore/internal/pipeline"
	"perfscore/internal/sources"
)

const SchemaVersion = 1

// Report is one persisted refresh.
type Report struct {
	SchemaVersion int                `json:"schema_version"`
	GeneratedAt   string             `json:"generated_at"`
	Target        string             `json:"target"`
	Feeds         []sources.FeedStat `json:"feeds"`
	Result        *pipeline.Result   `json:"result"`
}

// New wraps a refresh result for writing.
func New(res *pipeline.Result, feeds []sources.FeedStat, now time.Time) Report {
	return Report{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   now.UTC().Format(time.RFC3339),
		Target:        res.Target.String(),
		Feeds:         feeds,
		Result:        res,
	}
}

// Write stores r at path, replacing any previous file atomically.
func Write(path string, r Report) error {
	if path == "" {
		return fmt.Errorf("report path is required")
	}
	if r.Result == nil {
		return fmt.Errorf("report has no result")
	}
	r.SchemaVersion = SchemaVersion

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp report: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}

// Load reads a report written by Write.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if r.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported report schema_version %d", r.SchemaVersion)
	}
	if r.Result == nil {
		return nil, fmt.Errorf("report %s has no result", path)
	}
	return &r, nil
}

// PathFor is dir/<target>/<YYYY-MM-DD>.json.
func PathFor(dir, target string, asOf time.Time) string {
	return filepath.Join(dir, target, asOf.UTC().Format("2006-01-02")+".json")
}

// LatestPath returns the newest report stored for target.
func LatestPath(dir, target string) (string, error) {
	paths, err := List(dir, target)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("no reports for %s in %s", target, dir)
	}
	return paths[len(paths)-1], nil
}

// List returns the reports stored for target, oldest first.
func List(dir, target string) ([]string, error) {
	sub := filepath.Join(dir, target)
	entries, err := os.ReadDir(sub)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reports dir: %w", err)
	}
	var out []string
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".json") {
			continue
		}
		// YYYY-MM-DD.json sorts chronologically.
		out = append(out, filepath.Join(sub, ent.Name()))
	}
	sort.Strings(out)
	return out, nil
}
