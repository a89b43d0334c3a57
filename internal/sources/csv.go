package sources

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"perfscore/internal/metrics"
)

// CSVProvider reads a feed exported as CSV. Comma is detected from the first
// line when left zero; Brazilian exports usually use ';'.
type CSVProvider struct {
	Feed       metrics.Source
	Path       string
	HeaderRows int
	Comma      rune
}

func (p *CSVProvider) Name() string           { return "csv" }
func (p *CSVProvider) Source() metrics.Source { return p.Feed }

// Fetch returns no rows when the file does not exist.
func (p *CSVProvider) Fetch(ctx context.Context) ([][]string, error) {
	_ = ctx

	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", p.Path, err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = p.Comma
	if r.Comma == 0 {
		r.Comma = sniffComma(data)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.Path, err)
	}
	return dataRows(rows, p.HeaderRows), nil
}

func sniffComma(data []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(data))
	if !sc.Scan() {
		return ','
	}
	first := sc.Text()
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}
