package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"quorum/internal/report"
	"quorum/internal/schema"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func verdictColor(v schema.Verdict) string {
	switch v {
	case schema.VerdictGo:
		return green(string(v))
	case schema.VerdictNoGo:
		return red(string(v))
	case schema.VerdictPivot:
		return yellow(string(v))
	default:
		return gray(string(v))
	}
}

func render(w io.Writer, rep *report.FinalReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Fprintf(w, "\n%s %s  %s %.2f\n\n", bold("Verdict:"), verdictColor(rep.FinalVerdict), bold("Confidence:"), rep.Confidence)
	fmt.Fprintln(w, rep.FinalSummary)

	section(w, "Why this verdict", rep.WhyThisVerdict)
	section(w, "Key tradeoffs", rep.KeyTradeoffs)
	section(w, "Top risks", rep.TopRisks)
	section(w, "Next 3 actions", rep.Next3Actions)

	fmt.Fprintf(w, "\n%s\n", bold("One-week plan"))
	for _, day := range rep.OneWeekPlan {
		fmt.Fprintf(w, "  %s  %s\n", cyan(day.Day), day.Task)
	}

	fmt.Fprintf(w, "\n%s\n", bold("Single best experiment"))
	fmt.Fprintf(w, "  Hypothesis: %s\n", rep.BestExperiment.Hypothesis)
	fmt.Fprintf(w, "  Test:       %s\n", rep.BestExperiment.Test)
	fmt.Fprintf(w, "  Metric:     %s\n", rep.BestExperiment.SuccessMetric)
	fmt.Fprintf(w, "  Timebox:    %s\n", rep.BestExperiment.Timebox)

	fmt.Fprintf(w, "\n%s\n", bold("Board votes"))
	fmt.Fprintln(w, votesTable(rep.BoardVotes))

	if len(rep.MissingInfo) > 0 {
		section(w, "Missing information", rep.MissingInfo)
	}
	if len(rep.Assumptions) > 0 {
		section(w, "Assumptions", rep.Assumptions)
	}

	fmt.Fprintf(w, "\n%s\n", gray("Rule trace"))
	for _, tr := range rep.RuleTrace {
		marker := gray("-")
		if tr.Fired {
			marker = yellow("*")
		}
		fmt.Fprintf(w, "  %s %s: %s\n", marker, gray(tr.Rule), gray(tr.Effect))
	}
	return nil
}

func section(w io.Writer, title string, items []string) {
	fmt.Fprintf(w, "\n%s\n", bold(title))
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func votesTable(votes []report.BoardVote) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Seat", "Codename", "Verdict", "Confidence"})
	for _, v := range votes {
		if v.Failed != "" {
			t.AppendRow(table.Row{v.Role, v.Codename, red("failed: " + v.Failed), "-"})
			continue
		}
		t.AppendRow(table.Row{v.Role, v.Codename, v.Verdict, fmt.Sprintf("%.2f", v.Confidence)})
	}
	return t.Render()
}
