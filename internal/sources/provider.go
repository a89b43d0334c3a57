package sources

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"perfscore/internal/feeds"
	"perfscore/internal/metrics"
)

// Provider fetches the raw rows of one feed.
type Provider interface {
	Name() string
	Source() metrics.Source
	Fetch(ctx context.Context) ([][]string, error)
}

// FeedStat reports how many rows a provider delivered.
type FeedStat struct {
	Source   metrics.Source `json:"source"`
	Provider string         `json:"provider"`
	Rows     int            `json:"rows"`
}

// CollectAll fetches every provider concurrently and returns the rows in
// provider order, tagged with their source.
func CollectAll(ctx context.Context, providers []Provider) ([]feeds.RawRow, []FeedStat, error) {
	results := make([][][]string, len(providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		if p == nil {
			continue
		}
		i, p := i, p
		g.Go(func() error {
			rows, err := p.Fetch(gctx)
			if err != nil {
				return fmt.Errorf("%s %s feed: %w", p.Name(), p.Source(), err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var all []feeds.RawRow
	stats := make([]FeedStat, 0, len(providers))
	for i, p := range providers {
		if p == nil {
			continue
		}
		for _, cells := range results[i] {
			all = append(all, feeds.RawRow{Source: p.Source(), Cells: cells})
		}
		stats = append(stats, FeedStat{Source: p.Source(), Provider: p.Name(), Rows: len(results[i])})
	}
	return all, stats, nil
}

// dataRows drops the header rows and any row whose cells are all blank.
func dataRows(rows [][]string, headerRows int) [][]string {
	if headerRows >= len(rows) {
		return nil
	}
	if headerRows > 0 {
		rows = rows[headerRows:]
	}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
