package habits

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/models"
)

type HabitCmd struct {
	Create HabitCreateCmd `cmd:"" help:"Create a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits with their streak and progress." default:"1"`
	Show   HabitShowCmd   `cmd:"" help:"Show a habit and its current tasks."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and its tasks. Reports are kept."`
}

type HabitCreateCmd struct {
	Name        string   `help:"Habit name."`
	Periodicity string   `help:"daily, weekly or monthly." short:"p"`
	Task        []string `help:"Task template entry. Repeat for each task." short:"t"`
}

func (c *HabitCreateCmd) Run(ctx *cli.Context) error {
	if c.Name == "" || c.Periodicity == "" || len(c.Task) == 0 {
		if err := c.prompt(); err != nil {
			return err
		}
	}

	periodicity, err := models.ParsePeriodicity(c.Periodicity)
	if err != nil {
		return err
	}

	habit, err := ctx.Store.Habits().Create(ctx.Context(), strings.TrimSpace(c.Name), periodicity, c.Task)
	if err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Created habit %q (ID %d, %s, %d tasks)",
		habit.Name, habit.ID, habit.Periodicity.Label(), len(habit.Template))))
	fmt.Println(cli.MutedStyle.Render("  Run 'cadence sync' to generate its first batch of tasks."))
	return nil
}

// prompt fills whatever the flags left empty
func (c *HabitCreateCmd) prompt() error {
	if c.Periodicity == "" {
		c.Periodicity = string(models.PeriodicityDaily)
	}
	tasks := strings.Join(c.Task, "\n")

	options := make([]huh.Option[string], 0, len(models.Periodicities))
	for _, p := range models.Periodicities {
		options = append(options, huh.NewOption(p.Label(), string(p)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit name").
				Value(&c.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Periodicity").
				Options(options...).
				Value(&c.Periodicity),
			huh.NewText().
				Title("Tasks").
				Description("One task per line").
				Value(&tasks).
				Validate(func(s string) error {
					if len(splitLines(s)) == 0 {
						return errors.New("at least one task is required")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	c.Task = splitLines(tasks)
	return nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

type HabitListCmd struct {
	Periodicity string `help:"Only list habits with this periodicity." short:"p"`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	overview, err := ctx.Store.Habits().Overview(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to list habits: %w", err)
	}

	var filter models.Periodicity
	if c.Periodicity != "" {
		if filter, err = models.ParsePeriodicity(c.Periodicity); err != nil {
			return err
		}
	}

	rows := make([][]string, 0, len(overview))
	for _, h := range overview {
		if filter != "" && h.Periodicity != filter {
			continue
		}
		rows = append(rows, []string{
			cli.Itoa(h.ID),
			h.Name,
			h.Periodicity.Label(),
			cli.Itoa(h.Streak),
			cli.Itoa(h.TaskCount),
			cli.Itoa(h.CompletedCount),
		})
	}
	cli.PrintTable([]string{"ID", "Name", "Periodicity", "Streak", "Tasks", "Completed"}, rows,
		"No habits yet. Create one with 'cadence habit create'.")
	return nil
}

type HabitShowCmd struct {
	ID int64 `arg:"" help:"Habit ID."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.Store.Habits().Get(ctx.Context(), c.ID)
	if err != nil {
		return fmt.Errorf("habit %d: %w", c.ID, err)
	}
	tasks, err := ctx.Store.Tasks().ForHabit(ctx.Context(), c.ID)
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}

	fmt.Printf("%s (ID %d)\n", habit.Name, habit.ID)
	fmt.Printf("  Periodicity: %s\n", habit.Periodicity.Label())
	fmt.Printf("  Streak:      %d\n", habit.Streak)
	fmt.Printf("  Created:     %s\n", cli.FormatTime(habit.CreatedAt))
	fmt.Printf("  Period from: %s\n", cli.FormatTime(habit.UpdatedAt))
	fmt.Printf("  Template:    %s\n", strings.Join(habit.Template, ", "))
	fmt.Println()

	if len(tasks) == 0 {
		fmt.Println(cli.MutedStyle.Render("No open batch. Run 'cadence sync' to generate one."))
		return nil
	}
	for _, t := range tasks {
		fmt.Printf("  %s [%d] %s\n", cli.Checkbox(t.Completed), t.ID, t.Description)
	}
	return nil
}

type HabitDeleteCmd struct {
	ID  int64 `arg:"" help:"Habit ID."`
	Yes bool  `help:"Skip the confirmation prompt." short:"y"`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.Store.Habits().Get(ctx.Context(), c.ID)
	if err != nil {
		return fmt.Errorf("habit %d: %w", c.ID, err)
	}

	if !c.Yes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete %q and all of its tasks?", habit.Name)).
			Description("Archived reports are kept.").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Delete cancelled.")
			return nil
		}
	}

	if err := ctx.Store.Habits().Delete(ctx.Context(), c.ID); err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Deleted habit %q", habit.Name)))
	return nil
}
