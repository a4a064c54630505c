package main

import (
	"context"
	"fmt"

	"loot-tracker/internal/domain"
	"loot-tracker/internal/runfilter"
	"loot-tracker/internal/service"

	"github.com/spf13/cobra"
)

type filterFlags struct {
	character     string
	location      string
	loot          string
	rarity        string
	date          string
	excludeChests bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.character, "character", "", "only runs of this character id")
	cmd.Flags().StringVar(&f.location, "location", "", "only runs of this dungeon or boss")
	cmd.Flags().StringVar(&f.loot, "loot", "", `"drops" for runs with loot, or an item name`)
	cmd.Flags().StringVar(&f.rarity, "rarity", "", "only runs with a drop of this rarity")
	cmd.Flags().StringVar(&f.date, "date", "", "only runs on this day (2006-01-02)")
	cmd.Flags().BoolVar(&f.excludeChests, "exclude-chests", false, "ignore Chest of Stones drops")
}

func (f *filterFlags) criteria() (runfilter.Criteria, error) {
	rarity, ok := domain.ParseRarity(f.rarity)
	if !ok {
		return runfilter.Criteria{}, fmt.Errorf("unknown rarity %q", f.rarity)
	}
	return runfilter.Criteria{
		CharacterID:   f.character,
		Location:      f.location,
		Loot:          f.loot,
		Rarity:        rarity,
		Day:           f.date,
		ExcludeChests: f.excludeChests,
	}, nil
}

func parseKind(arg string) (domain.RunKind, error) {
	kind, ok := domain.ParseRunKind(arg)
	if !ok {
		return "", fmt.Errorf("unknown run kind %q, want dungeons or bosses", arg)
	}
	return kind, nil
}

var charactersCmd = &cobra.Command{
	Use:   "characters",
	Short: "List or add characters",
}

var charactersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List characters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(_ context.Context, d deps) error {
			return printCharacters(cmd.OutOrStdout(), d.characters.List())
		})
	},
}

var charactersAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a character",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, d deps) error {
			c, err := d.characters.Create(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", c.Name, c.ID)
			return nil
		})
	},
}

var (
	runsFilters filterFlags
	runsSort    string
	runsOrder   string
)

var runsCmd = &cobra.Command{
	Use:   "runs KIND",
	Short: "List dungeon or boss runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		q, err := buildListQuery(runsFilters, runsSort, runsOrder)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(_ context.Context, d deps) error {
			runs, err := d.runs.List(kind, q)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		})
	},
}

func buildListQuery(f filterFlags, sort, order string) (service.ListQuery, error) {
	criteria, err := f.criteria()
	if err != nil {
		return service.ListQuery{}, err
	}
	field, ok := runfilter.ParseSortField(sort)
	if !ok {
		return service.ListQuery{}, fmt.Errorf("unknown sort column %q", sort)
	}
	q := service.ListQuery{Criteria: criteria, Sort: field, Descending: field.DefaultDescending()}
	switch order {
	case "":
	case "asc":
		q.Descending = false
	case "desc":
		q.Descending = true
	default:
		return service.ListQuery{}, fmt.Errorf("order must be asc or desc, got %q", order)
	}
	return q, nil
}

var (
	statsFilters      filterFlags
	statsStreakRarity string
)

var statsCmd = &cobra.Command{
	Use:   "stats KIND",
	Short: "Summarize dungeon or boss runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		criteria, err := statsFilters.criteria()
		if err != nil {
			return err
		}
		streak, ok := domain.ParseRarity(statsStreakRarity)
		if !ok {
			return fmt.Errorf("unknown streak rarity %q", statsStreakRarity)
		}
		return withApp(cmd.Context(), func(_ context.Context, d deps) error {
			report, err := d.analytics.Report(kind, service.ReportQuery{Criteria: criteria, StreakRarity: streak})
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report)
		})
	},
}

func init() {
	charactersCmd.AddCommand(charactersListCmd, charactersAddCmd)

	runsFilters.register(runsCmd)
	runsCmd.Flags().StringVar(&runsSort, "sort", "date", "character, location, cost, earnings or date")
	runsCmd.Flags().StringVar(&runsOrder, "order", "", "asc or desc, newest first by default")

	statsFilters.register(statsCmd)
	statsCmd.Flags().StringVar(&statsStreakRarity, "streak-rarity", "any", "rarity that ends a dry streak")

	rootCmd.AddCommand(charactersCmd, runsCmd, statsCmd)
}
