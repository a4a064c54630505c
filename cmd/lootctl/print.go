package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"loot-tracker/internal/domain"
	"loot-tracker/internal/service"
)

func printCharacters(w io.Writer, characters []domain.Character) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, c := range characters {
		fmt.Fprintf(tw, "%s\t%s\n", c.ID, c.Name)
	}
	return tw.Flush()
}

func printRuns(w io.Writer, runs []service.NumberedRun) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDATE\tCHARACTER\tLOCATION\tCOST\tEARNINGS\tLOOT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.0f\t%.0f\t%s\n",
			r.Number, r.Date, r.CharacterName, r.Location, r.Cost, r.Earnings, lootLabel(r.Loot))
	}
	return tw.Flush()
}

func lootLabel(loot domain.Loot) string {
	if len(loot) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(loot))
	for _, item := range loot {
		parts = append(parts, fmt.Sprintf("%s (%s)", item.Name, item.Rarity))
	}
	return strings.Join(parts, ", ")
}

func printReport(w io.Writer, r service.Report) error {
	s := r.Summary
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "runs\t%d\n", s.TotalRuns)
	fmt.Fprintf(tw, "spent\t%.0f\n", s.TotalSpent)
	fmt.Fprintf(tw, "earned\t%.0f\n", s.TotalProfit)
	fmt.Fprintf(tw, "net\t%.0f\n", s.Net)
	fmt.Fprintf(tw, "drops\t%d in %d runs (%s%%)\n", s.TotalDrops, s.RunsWithDrops, s.PercentWithDrops)
	fmt.Fprintf(tw, "dry streak\t%d current, %d longest\n", s.Current, s.Longest)
	if len(r.Leaderboard) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "CHARACTER\tRUNS\tNET")
		for _, e := range r.Leaderboard {
			fmt.Fprintf(tw, "%s\t%d\t%.0f\n", e.Name, e.Runs, e.Net)
		}
	}
	return tw.Flush()
}
