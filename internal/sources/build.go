package sources

import (
	"fmt"

	"perfscore/internal/config"
	"perfscore/internal/metrics"
)

// PathResolver turns configured paths into absolute ones.
type PathResolver func(path string) (string, error)

// FromConfig builds one provider per configured feed, in reporting order.
func FromConfig(cfg *config.Config, resolve PathResolver) ([]Provider, error) {
	if resolve == nil {
		resolve = func(p string) (string, error) { return p, nil }
	}
	var providers []Provider
	for _, src := range metrics.Sources {
		fc, ok := cfg.Feed(src)
		if !ok {
			continue
		}
		p, err := newProvider(src, fc, resolve)
		if err != nil {
			return nil, fmt.Errorf("%s feed: %w", src, err)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func newProvider(src metrics.Source, fc config.FeedConfig, resolve PathResolver) (Provider, error) {
	switch fc.Kind {
	case "csv":
		path, err := resolve(fc.Path)
		if err != nil {
			return nil, err
		}
		p := &CSVProvider{Feed: src, Path: path, HeaderRows: fc.HeaderRows}
		if fc.Delimiter != "" {
			p.Comma = []rune(fc.Delimiter)[0]
		}
		return p, nil
	case "xlsx":
		path, err := resolve(fc.Path)
		if err != nil {
			return nil, err
		}
		return &XLSXProvider{Feed: src, Path: path, Sheet: fc.Sheet, HeaderRows: fc.HeaderRows}, nil
	case "sheets":
		creds := fc.CredentialsFile
		if creds != "" {
			var err error
			if creds, err = resolve(creds); err != nil {
				return nil, err
			}
		}
		return &SheetsProvider{
			Feed:            src,
			SpreadsheetID:   fc.SpreadsheetID,
			Range:           fc.Range,
			CredentialsFile: creds,
			HeaderRows:      fc.HeaderRows,
		}, nil
	}
	return nil, fmt.Errorf("unknown feed kind %q", fc.Kind)
}
