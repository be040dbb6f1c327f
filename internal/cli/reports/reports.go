package reports

import (
	"errors"
	"fmt"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
)

type ReportCmd struct {
	Overview    ReportOverviewCmd    `cmd:"" help:"Current streak and progress of every habit." default:"1"`
	Periodicity ReportPeriodicityCmd `cmd:"" help:"Archived batches of habits with the given periodicity."`
	Longest     ReportLongestCmd     `cmd:"" help:"Longest run streak, overall or for one habit."`
	Shortest    ReportShortestCmd    `cmd:"" help:"Shortest non-zero run streak of all habits."`
	Snapshot    ReportSnapshotCmd    `cmd:"" help:"Most recent archived batch of every habit."`
	List        ReportListCmd        `cmd:"" help:"List archived batches."`
}

var reportHeaders = []string{"ID", "Habit", "Periodicity", "Streak", "Completed", "Uncompleted", "Archived"}

func reportRows(reports []models.Report) [][]string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			cli.Itoa(r.ID),
			r.HabitName,
			r.Periodicity.Label(),
			cli.Itoa(r.CurrentStreak),
			cli.Itoa(r.CompletedTasksCount),
			cli.Itoa(r.UncompletedTasksCount),
			cli.FormatTime(r.CreatedAt),
		})
	}
	return rows
}

func printStreak(stat models.StreakStat, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Println(cli.MutedStyle.Render("No archived batches yet."))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query streaks: %w", err)
	}
	cli.PrintTable([]string{"Habit ID", "Habit", "Streak"},
		[][]string{{cli.Itoa(stat.HabitID), stat.HabitName, cli.Itoa(stat.Streak)}}, "")
	return nil
}

type ReportOverviewCmd struct{}

func (c *ReportOverviewCmd) Run(ctx *cli.Context) error {
	overview, err := ctx.Store.Habits().Overview(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to load overview: %w", err)
	}
	rows := make([][]string, 0, len(overview))
	for _, h := range overview {
		rows = append(rows, []string{
			cli.Itoa(h.ID), h.Name, h.Periodicity.Label(),
			cli.Itoa(h.Streak), cli.Itoa(h.TaskCount), cli.Itoa(h.CompletedCount),
		})
	}
	cli.PrintTable([]string{"ID", "Name", "Periodicity", "Streak", "Tasks", "Completed"}, rows, "No habits yet.")
	return nil
}

type ReportPeriodicityCmd struct {
	Periodicity string `arg:"" help:"daily, weekly or monthly."`
}

func (c *ReportPeriodicityCmd) Run(ctx *cli.Context) error {
	p, err := models.ParsePeriodicity(c.Periodicity)
	if err != nil {
		return err
	}
	reports, err := ctx.Store.Reports().ListByPeriodicity(ctx.Context(), p)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}
	cli.PrintTable(reportHeaders, reportRows(reports), fmt.Sprintf("No %s batches archived yet.", p))
	return nil
}

type ReportLongestCmd struct {
	Habit int64 `help:"Restrict to one habit."`
}

func (c *ReportLongestCmd) Run(ctx *cli.Context) error {
	if c.Habit != 0 {
		return printStreak(ctx.Store.Reports().MaxStreakForHabit(ctx.Context(), c.Habit))
	}
	return printStreak(ctx.Store.Reports().MaxStreak(ctx.Context()))
}

type ReportShortestCmd struct{}

func (c *ReportShortestCmd) Run(ctx *cli.Context) error {
	return printStreak(ctx.Store.Reports().MinPositiveStreak(ctx.Context()))
}

type ReportSnapshotCmd struct{}

func (c *ReportSnapshotCmd) Run(ctx *cli.Context) error {
	reports, err := ctx.Store.Reports().LatestPerHabit(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	cli.PrintTable(reportHeaders, reportRows(reports), "No archived batches yet.")
	return nil
}

type ReportListCmd struct {
	Habit int64 `help:"Only list batches of this habit."`
	Tasks bool  `help:"Print the archived tasks of each batch."`
}

func (c *ReportListCmd) Run(ctx *cli.Context) error {
	all, err := ctx.Store.Reports().List(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}
	reports := all[:0:0]
	for _, r := range all {
		if c.Habit == 0 || r.HabitID == c.Habit {
			reports = append(reports, r)
		}
	}

	if !c.Tasks {
		cli.PrintTable(reportHeaders, reportRows(reports), "No archived batches yet.")
		return nil
	}
	if len(reports) == 0 {
		fmt.Println(cli.MutedStyle.Render("No archived batches yet."))
		return nil
	}
	for _, r := range reports {
		fmt.Printf("#%d %s (%s, streak %d) archived %s\n",
			r.ID, r.HabitName, r.Periodicity.Label(), r.CurrentStreak, cli.FormatTime(r.CreatedAt))
		for _, t := range r.RawData {
			fmt.Printf("  %s %s\n", cli.Checkbox(t.Completed), t.Description)
		}
	}
	return nil
}
