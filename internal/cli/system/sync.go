package system

import (
	"fmt"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/engine"
)

type SyncCmd struct {
	FinishOnly bool `help:"Only archive finished batches." xor:"mode"`
	RefillOnly bool `help:"Only create tasks for habits without a batch." xor:"mode"`
	NoBackup   bool `help:"Skip the automatic backup even when backup_before_sync is set."`
}

func (c *SyncCmd) Run(ctx *cli.Context) error {
	if ctx.Config.BackupBeforeSync && !c.NoBackup {
		ctx.PerformAutomaticBackup()
	}

	var (
		res engine.Result
		err error
	)
	switch {
	case c.FinishOnly:
		res, err = ctx.Engine.Finish(ctx.Context())
	case c.RefillOnly:
		res, err = ctx.Engine.Refill(ctx.Context())
	default:
		res, err = ctx.Engine.Sync(ctx.Context())
	}
	if err != nil {
		return err
	}

	printResult(res)
	return nil
}

func printResult(res engine.Result) {
	if res.Empty() {
		fmt.Println(cli.MutedStyle.Render("Nothing to sync. Every batch is still open."))
		return
	}

	if len(res.Archived) > 0 {
		fmt.Println("Archived")
		rows := make([][]string, 0, len(res.Archived))
		for _, r := range res.Archived {
			rows = append(rows, []string{
				r.HabitName,
				fmt.Sprintf("%d/%d", r.CompletedTasksCount, r.BatchSize()),
				cli.Itoa(r.CurrentStreak),
			})
		}
		cli.PrintTable([]string{"Habit", "Completed", "Streak"}, rows, "")
	}

	if len(res.Refilled) > 0 {
		fmt.Println("Refilled")
		rows := make([][]string, 0, len(res.Refilled))
		for _, r := range res.Refilled {
			rows = append(rows, []string{cli.Itoa(r.HabitID), r.HabitName, cli.Itoa(len(r.Tasks))})
		}
		cli.PrintTable([]string{"ID", "Habit", "Tasks"}, rows, "")
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Sync %s complete", res.SyncID)))
}
