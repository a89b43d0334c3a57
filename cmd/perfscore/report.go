package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"perfscore/internal/metrics"
	"perfscore/internal/report"
	"perfscore/internal/workspace"
)

func runReport(args []string, workspacePath string) error {
	if len(args) == 0 || isHelp(args[0]) {
		return fmt.Errorf("%s report: missing subcommand", appName)
	}
	switch args[0] {
	case "diff":
		return runReportDiff(args[1:], workspacePath)
	default:
		return fmt.Errorf("%s report: unknown subcommand %q", appName, args[0])
	}
}

func runReportDiff(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("report diff", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	period := fs.String("period", "", "Period whose two latest reports are compared (default: current year)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var fromPath, toPath string
	switch fs.NArg() {
	case 2:
		fromPath, toPath = fs.Arg(0), fs.Arg(1)
		if workspacePath != "" {
			ws, err := workspace.Resolve(workspacePath)
			if err != nil {
				return err
			}
			if fromPath, err = ws.ResolvePath(fromPath); err != nil {
				return err
			}
			if toPath, err = ws.ResolvePath(toPath); err != nil {
				return err
			}
		}
	case 0:
		if workspacePath == "" {
			return fmt.Errorf("--workspace is required when no reports are given")
		}
		ws, err := workspace.Resolve(workspacePath)
		if err != nil {
			return err
		}
		target := metrics.YearToDate(time.Now())
		if *period != "" {
			if target, err = metrics.ParseTarget(*period); err != nil {
				return err
			}
		}
		paths, err := report.List(ws.ReportsDir, target.String())
		if err != nil {
			return err
		}
		if len(paths) < 2 {
			return fmt.Errorf("need two reports for %s, found %d", target, len(paths))
		}
		fromPath, toPath = paths[len(paths)-2], paths[len(paths)-1]
	default:
		return fmt.Errorf("%s report diff: expected zero or two report paths", appName)
	}

	from, err := report.Load(fromPath)
	if err != nil {
		return err
	}
	to, err := report.Load(toPath)
	if err != nil {
		return err
	}
	return writeReportDiff(os.Stdout, from, to, fromPath, toPath)
}

func writeReportDiff(w io.Writer, from, to *report.Report, fromName, toName string) error {
	changes := report.Changes(from, to)
	if len(changes) == 0 {
		fmt.Fprintln(w, "no scorecard changes")
	}
	for _, ch := range changes {
		switch {
		case ch.Before == nil:
			fmt.Fprintf(w, "+ %s %.1f\n", ch.Team, *ch.After)
		case ch.After == nil:
			fmt.Fprintf(w, "- %s %.1f\n", ch.Team, *ch.Before)
		default:
			fmt.Fprintf(w, "~ %s %.1f -> %.1f (%+.1f)\n", ch.Team, *ch.Before, *ch.After, ch.Delta)
		}
	}
	diff, err := report.UnifiedDiff(from, to, fromName, toName)
	if err != nil {
		return err
	}
	if diff != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, diff)
	}
	return nil
}
