package backups

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/cadence/internal/backup"
	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/storage/sqlite"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
	List    BackupListCmd    `cmd:"" help:"List available backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
}

func manager(ctx *cli.Context) (*backup.Manager, error) {
	if ctx.Store.Driver() != sqlite.DriverName {
		return nil, backup.ErrNotSQLite
	}
	return backup.NewManager(ctx.Store.GetConfigPath()), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	info, err := mgr.Create(ctx.Context())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Backup created: %s", info.Name())))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Println("No backups found.")
		fmt.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	rows := make([][]string, 0, len(backups))
	for _, b := range backups {
		rows = append(rows, []string{
			b.Timestamp.Format("2006-01-02 15:04:05"),
			b.Name(),
			fmt.Sprintf("%.1f KB", float64(b.Size)/1024.0),
		})
	}
	fmt.Printf("Available backups (%d total, keeping most recent %d):\n", len(backups), constants.MaxBackups)
	cli.PrintTable([]string{"Taken", "File", "Size"}, rows, "")
	fmt.Printf("Backup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `help:"Skip the confirmation prompt." short:"y"`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}

	backupPath := mgr.Resolve(c.BackupFile)
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup file not found: %s", backupPath)
	}

	if !c.Yes {
		fmt.Println(cli.WarnStyle.Render("⚠️  This will replace your current database with the backup."))
		fmt.Println("   Stop every other cadence process (TUI, serve) before restoring.")
		fmt.Println("   A backup of the current database is taken first.")
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Restore from %s?", backupPath)).
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	// Close the current store connection before restoring
	if err := ctx.Store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database connection: %v\n", err)
	}

	safety, err := mgr.Restore(ctx.Context(), backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Println(cli.SuccessStyle.Render("✓ Database restored successfully!"))
	fmt.Printf("  Previous database saved as %s\n", safety.Name())
	return nil
}
