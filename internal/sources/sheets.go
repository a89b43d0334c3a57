package sources

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"perfscore/internal/metrics"
)

// SheetsProvider reads a feed from a Google Sheets range. Values are fetched
// as displayed so locale formatting ("R$ 1.234,56", "50%") reaches the
// normaliser unchanged.
type SheetsProvider struct {
	Feed            metrics.Source
	SpreadsheetID   string
	Range           string
	CredentialsFile string
	HeaderRows      int
	// ClientOptions are appended after the credentials option.
	ClientOptions []option.ClientOption
}

func (p *SheetsProvider) Name() string           { return "sheets" }
func (p *SheetsProvider) Source() metrics.Source { return p.Feed }

func (p *SheetsProvider) Fetch(ctx context.Context) ([][]string, error) {
	var opts []option.ClientOption
	if p.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(p.CredentialsFile))
	}
	opts = append(opts, p.ClientOptions...)

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	resp, err := svc.Spreadsheets.Values.Get(p.SpreadsheetID, p.Range).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", p.Range, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			if v == nil {
				continue
			}
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return dataRows(rows, p.HeaderRows), nil
}
