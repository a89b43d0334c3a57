package sources

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"perfscore/internal/metrics"
)

// XLSXProvider reads a feed from one worksheet of an Excel workbook. The
// first sheet is used when Sheet is empty.
type XLSXProvider struct {
	Feed       metrics.Source
	Path       string
	Sheet      string
	HeaderRows int
}

func (p *XLSXProvider) Name() string           { return "xlsx" }
func (p *XLSXProvider) Source() metrics.Source { return p.Feed }

func (p *XLSXProvider) Fetch(ctx context.Context) ([][]string, error) {
	_ = ctx

	f, err := excelize.OpenFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheet := p.Sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", p.Path)
		}
		sheet = list[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found in %s", sheet, p.Path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return dataRows(rows, p.HeaderRows), nil
}
