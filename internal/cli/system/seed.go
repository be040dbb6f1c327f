package system

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/lock"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/seed"
	"github.com/julianstephens/cadence/internal/storage"
	"github.com/julianstephens/cadence/internal/storage/postgres"
	"github.com/julianstephens/cadence/internal/storage/sqlite"
)

type SeedCmd struct {
	Days           int     `help:"Days of history to simulate." default:"30"`
	PerPeriodicity int     `help:"Habits to create per periodicity." default:"3"`
	Tasks          int     `help:"Tasks per habit." default:"4"`
	CompletionRate float64 `help:"Share of open tasks completed each day (0-1)." default:"0.7"`
	Seed           int64   `help:"Random seed; the same seed yields the same data." default:"1"`
	Reset          bool    `help:"Delete all habits, tasks and reports first. Required when the database is not empty."`
	Yes            bool    `short:"y" help:"Skip the confirmation prompt for --reset."`
}

func (c *SeedCmd) Run(ctx *cli.Context) error {
	if c.Reset && !c.Yes {
		confirm := false
		err := huh.NewConfirm().
			Title("Delete every habit, task and report before seeding?").
			Value(&confirm).
			Run()
		if err != nil {
			return err
		}
		if !confirm {
			fmt.Println("Seeding cancelled.")
			return nil
		}
	}

	clock := seed.NewClock(time.Now())
	store, err := c.openWithClock(ctx, clock)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := seed.Options{
		Days:           c.Days,
		PerPeriodicity: c.PerPeriodicity,
		TasksPerHabit:  c.Tasks,
		CompletionRate: c.CompletionRate,
		Seed:           c.Seed,
		Reset:          c.Reset,
	}
	if path, err := cli.LockPath(ctx.Store); err == nil {
		opts.Locker = lock.NewFile(path)
	} else {
		logger.Warn("Sync lock disabled", "error", err)
	}
	sum, err := seed.Run(ctx.Context(), store, clock, opts)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	cli.PrintTable([]string{"Habits", "Tasks completed", "Batches archived", "From", "To"}, [][]string{{
		cli.Itoa(sum.Habits),
		cli.Itoa(sum.Completed),
		cli.Itoa(sum.Archived),
		cli.FormatTime(sum.Start),
		cli.FormatTime(sum.End),
	}}, "")
	fmt.Println(cli.SuccessStyle.Render("✓ Demo data created"))
	return nil
}

// openWithClock opens a second handle on the configured database whose
// timestamps follow clock instead of the wall clock.
func (c *SeedCmd) openWithClock(ctx *cli.Context, clock *seed.Clock) (storage.Provider, error) {
	var store storage.Provider
	switch ctx.Store.Driver() {
	case sqlite.DriverName:
		store = sqlite.NewStore(ctx.Store.GetConfigPath(), sqlite.WithClock(clock.Now))
	case postgres.DriverName:
		store = postgres.New(ctx.Config.Database, postgres.WithClock(clock.Now))
	default:
		return nil, fmt.Errorf("seeding is not supported for %s storage", ctx.Store.Driver())
	}
	if err := store.Load(ctx.Context()); err != nil {
		return nil, err
	}
	return store, nil
}
