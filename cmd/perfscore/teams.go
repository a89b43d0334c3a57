package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"perfscore/internal/feeds"
	"perfscore/internal/metrics"
	"perfscore/internal/teams"
)

func runTeams(args []string, workspacePath string) error {
	if len(args) == 0 || isHelp(args[0]) {
		return fmt.Errorf("%s teams: missing subcommand", appName)
	}
	switch args[0] {
	case "check":
		return runTeamsCheck(args[1:], workspacePath)
	default:
		return fmt.Errorf("%s teams: unknown subcommand %q", appName, args[0])
	}
}

func runTeamsCheck(args []string, workspacePath string) (err error) {
	fs := flag.NewFlagSet("teams check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	aliases := fs.String("aliases", "", "Alias table (default: aliases from perfscore.yml)")
	auditDB := fs.String("audit-db", "", "Path to audit SQLite DB (default: <workspace>/audit/audit.sqlite)")
	strict := fs.Bool("strict", false, "Fail when any feed team name is unmapped")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := openSession(workspacePath, *auditDB)
	if err != nil {
		return err
	}
	defer s.close()

	finish := s.started("teams_check", map[string]any{"workspace": s.ws.Root})
	extra := map[string]any{}
	defer func() { finish(err, extra) }()

	reg, err := loadRegistry(s, *aliases)
	if err != nil {
		return err
	}
	rows, _, err := collectFeeds(context.Background(), s)
	if err != nil {
		return err
	}
	records, _ := feeds.NormalizeAll(rows, s.cfg.EngineOptions().Normalize)
	_, stats := teams.ResolveRecords(records, reg)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TEAM\tKPI\tOKR\tPROJECT")
	for _, team := range reg.Teams() {
		cols := make([]string, 0, len(metrics.Sources))
		for _, src := range metrics.Sources {
			cols = append(cols, strings.Join(reg.Aliases(team.ID, src), ", "))
		}
		fmt.Fprintf(tw, "%s\t%s\n", team.ID, strings.Join(cols, "\t"))
	}
	_ = tw.Flush()

	fmt.Fprintf(os.Stdout, "\nrecords: %d mapped, %d extra fan-out copies, %d excluded\n",
		stats.Mapped, stats.FanOut, stats.Excluded)
	unknown := 0
	for _, src := range metrics.Sources {
		names := stats.Unknown[src]
		if len(names) == 0 {
			continue
		}
		unknown += len(names)
		fmt.Fprintf(os.Stdout, "unmapped %s names:\n", src)
		for _, name := range names {
			fmt.Fprintf(os.Stdout, "  %s\n", name)
		}
	}
	if unknown == 0 {
		fmt.Fprintln(os.Stdout, "all feed team names are mapped")
	}

	extra["teams"] = len(reg.Teams())
	extra["unmapped"] = unknown
	extra["excluded"] = stats.Excluded
	if *strict && unknown > 0 {
		err = fmt.Errorf("%d unmapped team name(s)", unknown)
		return err
	}
	return nil
}
