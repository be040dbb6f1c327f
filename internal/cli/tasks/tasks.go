package tasks

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/models"
)

type TaskCmd struct {
	List     TaskListCmd     `cmd:"" help:"List tasks grouped by habit." default:"1"`
	Complete TaskCompleteCmd `cmd:"" help:"Mark tasks as completed."`
}

type TaskListCmd struct {
	Habit int64 `help:"Only list tasks of this habit."`
	Open  bool  `help:"Hide completed tasks."`
}

func (c *TaskListCmd) Run(ctx *cli.Context) error {
	var habitID *int64
	if c.Habit != 0 {
		habitID = &c.Habit
	}
	tasks, err := ctx.Store.Tasks().List(ctx.Context(), habitID)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		if c.Open && t.Completed {
			continue
		}
		rows = append(rows, []string{cli.Itoa(t.ID), t.HabitName, cli.Checkbox(t.Completed), t.Description})
	}
	cli.PrintTable([]string{"ID", "Habit", "Done", "Task"}, rows, "No tasks. Run 'cadence sync' to generate them.")
	return nil
}

type TaskCompleteCmd struct {
	IDs []int64 `arg:"" optional:"" name:"id" help:"Task IDs. Prompts for a selection when omitted."`
}

func (c *TaskCompleteCmd) Run(ctx *cli.Context) error {
	ids := c.IDs
	if len(ids) == 0 {
		selected, err := selectOpenTasks(ctx)
		if err != nil {
			return err
		}
		if len(selected) == 0 {
			fmt.Println("Nothing selected.")
			return nil
		}
		ids = selected
	}

	for _, id := range ids {
		task, err := ctx.Engine.CompleteTask(ctx.Context(), id)
		switch {
		case errors.Is(err, models.ErrAlreadyCompleted):
			fmt.Println(cli.WarnStyle.Render(fmt.Sprintf("• Task %d is already completed", id)))
		case err != nil:
			return fmt.Errorf("complete task %d: %w", id, err)
		default:
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Completed [%d] %s", task.ID, task.Description)))
		}
	}
	return nil
}

func selectOpenTasks(ctx *cli.Context) ([]int64, error) {
	tasks, err := ctx.Store.Tasks().List(ctx.Context(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	var options []huh.Option[int64]
	for _, t := range tasks {
		if !t.Completed {
			options = append(options, huh.NewOption(fmt.Sprintf("%s: %s", t.HabitName, t.Description), t.ID))
		}
	}
	if len(options) == 0 {
		fmt.Println("No open tasks.")
		return nil, nil
	}

	var selected []int64
	err = huh.NewMultiSelect[int64]().
		Title("Which tasks did you complete?").
		Options(options...).
		Value(&selected).
		Run()
	return selected, err
}
