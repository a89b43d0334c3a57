package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"perfscore/internal/feeds"
	"perfscore/internal/metrics"
	"perfscore/internal/notify"
	"perfscore/internal/pipeline"
	"perfscore/internal/report"
	"perfscore/internal/scorecard"
	"perfscore/internal/sources"
	"perfscore/internal/teams"
)

func runRefresh(args []string, workspacePath string) (err error) {
	fs := flag.NewFlagSet("refresh", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	period := fs.String("period", "", "Target period: 2024, 2024-Q2 or 2024-03 (default: current year)")
	output := fs.String("output", "", "Report path (default: <workspace>/reports/<period>/<date>.json)")
	aliases := fs.String("aliases", "", "Alias table (default: aliases from perfscore.yml)")
	auditDB := fs.String("audit-db", "", "Path to audit SQLite DB (default: <workspace>/audit/audit.sqlite)")
	sendNotify := fs.Bool("notify", false, "Send a desktop notification with the outcome")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := openSession(workspacePath, *auditDB)
	if err != nil {
		return err
	}
	defer s.close()

	now := time.Now()
	target := metrics.YearToDate(now)
	if *period != "" {
		if target, err = metrics.ParseTarget(*period); err != nil {
			return err
		}
	}

	finish := s.started("refresh", map[string]any{
		"workspace": s.ws.Root,
		"target":    target.String(),
	})
	extra := map[string]any{"target": target.String()}
	defer func() { finish(err, extra) }()

	reg, err := loadRegistry(s, *aliases)
	if err != nil {
		return err
	}
	rows, stats, err := collectFeeds(context.Background(), s)
	if err != nil {
		return err
	}

	engine, err := pipeline.NewEngine(reg, s.cfg.EngineOptions(), s.log)
	if err != nil {
		return err
	}
	res, err := engine.Refresh(rows, target)
	if err != nil {
		return err
	}

	outPath := *output
	if outPath == "" {
		outPath = report.PathFor(s.ws.ReportsDir, target.String(), now)
	} else if outPath, err = s.ws.ResolvePath(outPath); err != nil {
		return fmt.Errorf("resolve --output: %w", err)
	}
	if err = report.Write(outPath, report.New(res, stats, now)); err != nil {
		return err
	}

	set := res.Scorecards
	extra["output"] = outPath
	extra["row_hash"] = res.RowHash
	extra["teams"] = len(set.Scorecards)
	extra["teams_with_signal"] = set.TeamsWithSignal
	extra["teams_meeting_bar"] = set.TeamsMeetingBar

	printScorecards(os.Stdout, set)
	fmt.Fprintf(os.Stdout, "Wrote report: %s\n", outPath)

	if *sendNotify {
		title, message := notify.FormatRefresh(set)
		n := &notify.Notifier{Enabled: true}
		if nerr := n.Send(title, message); nerr != nil {
			s.log.Warn("notification failed", zap.Error(nerr))
		}
	}
	return nil
}

func loadRegistry(s *session, override string) (*teams.Registry, error) {
	path := s.cfg.Aliases
	if override != "" {
		path = override
	}
	resolved, err := s.ws.ResolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve alias table: %w", err)
	}
	return teams.LoadFile(resolved)
}

func collectFeeds(ctx context.Context, s *session) ([]feeds.RawRow, []sources.FeedStat, error) {
	providers, err := sources.FromConfig(s.cfg, s.ws.ResolvePath)
	if err != nil {
		return nil, nil, err
	}
	rows, stats, err := sources.CollectAll(ctx, providers)
	if err != nil {
		return nil, nil, err
	}
	for _, st := range stats {
		s.log.Debug("feed fetched",
			zap.String("source", string(st.Source)),
			zap.String("provider", st.Provider),
			zap.Int("rows", st.Rows),
		)
	}
	return rows, stats, nil
}

func printScorecards(w io.Writer, set scorecard.Set) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTEAM\tKPI\tOKR\tPROJECT\tOVERALL\tBAR")
	for _, sc := range set.Scorecards {
		var mark string
		switch {
		case !sc.HasSignal:
			mark = "-"
		case sc.MeetsBar:
			mark = "ok"
		default:
			mark = "below"
		}
		team := sc.Team
		if sc.Unmapped {
			team += " (unmapped)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.1f\t%s\n",
			sc.Rank, team, pct(sc.KPIAvg), pct(sc.OKRAvg), pct(sc.ProjectAvg), sc.OverallAvg, mark)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%s: %d/%d teams at or above %.0f%% (%.1f%%)\n",
		set.Period, set.TeamsMeetingBar, set.TeamsWithSignal, set.Bar, set.PercentMeetingBar)
}

func pct(v *float64) string {
	if v == nil {
		return "-"
	}
	return strings.TrimSuffix(fmt.Sprintf("%.1f", *v), ".0")
}
