// Package backup snapshots and restores the SQLite database file.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/logger"
)

const stampFormat = "20060102-150405"

// ErrNotSQLite is returned for backup operations on a non-file database
var ErrNotSQLite = errors.New("backups are only supported for SQLite databases")

// Info describes one backup file
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Name is the backup's file name
func (i Info) Name() string { return filepath.Base(i.Path) }

type Option func(*Manager)

func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithRetention keeps at most n backups after each new one
func WithRetention(n int) Option {
	return func(m *Manager) { m.retention = n }
}

// Manager writes backups into a "backups" directory next to the database
type Manager struct {
	dbPath    string
	backupDir string
	retention int
	clock     func() time.Time
}

func NewManager(dbPath string, opts ...Option) *Manager {
	m := &Manager{
		dbPath:    dbPath,
		backupDir: filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
		retention: constants.MaxBackups,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Dir() string { return m.backupDir }

// Create snapshots the database and prunes backups beyond the retention limit
func (m *Manager) Create(ctx context.Context) (Info, error) {
	info, err := m.create(ctx)
	if err != nil {
		return Info{}, err
	}
	if err := m.rotate(); err != nil {
		logger.Warn("Failed to rotate old backups", "dir", m.backupDir, "error", err)
	}
	return info, nil
}

func (m *Manager) create(ctx context.Context) (Info, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return Info{}, fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.dbPath); os.IsNotExist(err) {
		return Info{}, fmt.Errorf("database does not exist: %s", m.dbPath)
	}

	now := m.clock()
	path, err := m.uniquePath(now)
	if err != nil {
		return Info{}, err
	}
	if err := m.snapshot(ctx, path); err != nil {
		return Info{}, fmt.Errorf("failed to backup database: %w", err)
	}

	st, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	logger.Info("Backup created", "path", path, "size", st.Size())
	return Info{Path: path, Timestamp: now.Truncate(time.Second), Size: st.Size()}, nil
}

func (m *Manager) uniquePath(now time.Time) (string, error) {
	stamp := now.Format(stampFormat)
	path := filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+constants.BackupFileSuffix)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if counter > 100 {
			return "", errors.New("failed to generate unique backup filename")
		}
		path = filepath.Join(m.backupDir, fmt.Sprintf("%s%s-%d%s", constants.BackupFilePrefix, stamp, counter, constants.BackupFileSuffix))
	}
}

// snapshot writes a consistent copy with VACUUM INTO, falling back to a
// plain file copy on engines that lack it.
func (m *Manager) snapshot(ctx context.Context, dest string) error {
	src, err := sqlx.Open("sqlite", "file:"+m.dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer src.Close()

	if err := verify(ctx, src); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	if _, err := src.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		logger.Debug("VACUUM INTO failed, copying file", "error", err)
		return copyFile(m.dbPath, dest)
	}
	return nil
}

// List returns the backups newest first
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
			continue
		}
		ts, ok := parseStamp(name)
		if !ok {
			continue
		}
		st, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{Path: filepath.Join(m.backupDir, name), Timestamp: ts, Size: st.Size()})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// parseStamp extracts the timestamp from cadence-YYYYMMDD-HHMMSS[-N].db
func parseStamp(name string) (time.Time, bool) {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)
	if len(stamp) < len(stampFormat) {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(stampFormat, stamp[:len(stampFormat)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := m.retention; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Resolve accepts either a path or the file name of a backup in Dir
func (m *Manager) Resolve(nameOrPath string) string {
	if filepath.IsAbs(nameOrPath) || strings.ContainsRune(nameOrPath, os.PathSeparator) {
		return nameOrPath
	}
	return filepath.Join(m.backupDir, nameOrPath)
}

// Restore replaces the database with backupPath. The current database is
// backed up first; the returned Info describes that safety copy and is zero
// when there was no database to save.
func (m *Manager) Restore(ctx context.Context, backupPath string) (Info, error) {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return Info{}, fmt.Errorf("backup file does not exist: %s", backupPath)
	}

	db, err := sqlx.Open("sqlite", "file:"+backupPath+"?mode=ro")
	if err != nil {
		return Info{}, err
	}
	err = verify(ctx, db)
	db.Close()
	if err != nil {
		return Info{}, fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var safety Info
	if _, err := os.Stat(m.dbPath); err == nil {
		// Not rotated, so the safety copy cannot evict the backup being restored
		if safety, err = m.create(ctx); err != nil {
			return Info{}, fmt.Errorf("failed to backup current database before restore: %w", err)
		}
	}

	tmp := m.dbPath + ".restore.tmp"
	if err := copyFile(backupPath, tmp); err != nil {
		return safety, fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.dbPath); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("Failed to remove temporary restore file", "path", tmp, "error", rmErr)
		}
		return safety, fmt.Errorf("failed to restore database: %w", err)
	}
	logger.Info("Database restored", "from", backupPath)
	return safety, nil
}

// verify checks that db is a readable cadence database
func verify(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('habits', 'tasks', 'reports')"); err != nil {
		return err
	}
	if n != 3 {
		return errors.New("not a cadence database")
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
