package system

import (
	"fmt"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/storage"
)

type MigrateCmd struct {
	Status bool `help:"Only report the schema version and pending migrations."`
}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	migrator, ok := ctx.Store.(storage.Migrator)
	if !ok {
		return fmt.Errorf("%s storage does not support migrations", ctx.Store.Driver())
	}

	if c.Status {
		st, err := migrator.SchemaStatus(ctx.Context())
		if err != nil {
			return fmt.Errorf("failed to read schema status: %w", err)
		}
		fmt.Printf("Schema version %d of %d\n", st.Current, st.Latest)
		for _, m := range st.Pending {
			fmt.Printf("  pending %03d_%s\n", m.Version, m.Name)
		}
		return nil
	}

	count, err := migrator.Migrate(ctx.Context())
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
	} else {
		fmt.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
