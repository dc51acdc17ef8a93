package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one embedded up-migration.
type Migration struct {
	Version uint
	Name    string
}

// MigrationStatus reports the schema version of the target database.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Applied []Migration
	Pending []Migration
}

// Migrator applies the embedded SQL migrations with golang-migrate.
type Migrator struct {
	db *sql.DB
}

// NewMigrator opens a database/sql handle for the migration driver.
func NewMigrator(databaseURL string) (*Migrator, error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}
	return &Migrator{db: sqlDB}, nil
}

func (m *Migrator) instance() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := postgres.WithInstance(m.db, &postgres.Config{MigrationsTable: "schema_migrations"})
	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}
	mg, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return mg, nil
}

// Up applies all pending migrations and returns the resulting version.
func (m *Migrator) Up() (uint, error) {
	mg, err := m.instance()
	if err != nil {
		return 0, err
	}
	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}
	version, _, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	return version, nil
}

// Down rolls back the given number of migrations.
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	mg, err := m.instance()
	if err != nil {
		return err
	}
	if err := mg.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("roll back migrations: %w", err)
	}
	return nil
}

// Status splits the embedded migrations into applied and pending.
func (m *Migrator) Status() (*MigrationStatus, error) {
	mg, err := m.instance()
	if err != nil {
		return nil, err
	}
	version, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("read migration version: %w", err)
	}
	all, err := Available()
	if err != nil {
		return nil, err
	}
	st := &MigrationStatus{Version: version, Dirty: dirty}
	for _, mig := range all {
		if mig.Version <= version {
			st.Applied = append(st.Applied, mig)
		} else {
			st.Pending = append(st.Pending, mig)
		}
	}
	return st, nil
}

func (m *Migrator) Close() error {
	return m.db.Close()
}

// Available lists the embedded up-migrations in version order. File names
// follow golang-migrate's "<version>_<name>.up.sql" convention.
func Available() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	var out []Migration
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		mig, ok := parseMigrationName(name)
		if !ok {
			continue
		}
		out = append(out, mig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func parseMigrationName(file string) (Migration, bool) {
	parts := strings.SplitN(file, "_", 2)
	if len(parts) != 2 {
		return Migration{}, false
	}
	v, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Migration{}, false
	}
	return Migration{Version: uint(v), Name: strings.TrimSuffix(parts[1], ".up.sql")}, true
}
