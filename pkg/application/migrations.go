package application

import (
	"database/sql"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// MigrationManager applies goose SQL migrations registered by modules.
type MigrationManager interface {
	RegisterSchema(fsys fs.FS)
	Run() error
	Rollback() error
}

func NewMigrationManager(pool *pgxpool.Pool) MigrationManager {
	return &migrationManager{pool: pool}
}

type migrationManager struct {
	pool    *pgxpool.Pool
	schemas []fs.FS
}

func (m *migrationManager) RegisterSchema(fsys fs.FS) {
	m.schemas = append(m.schemas, fsys)
}

func (m *migrationManager) Run() error {
	return m.each(func(db *sql.DB, fsys fs.FS) error {
		goose.SetBaseFS(fsys)
		defer goose.SetBaseFS(nil)
		return goose.Up(db, ".")
	})
}

func (m *migrationManager) Rollback() error {
	return m.each(func(db *sql.DB, fsys fs.FS) error {
		goose.SetBaseFS(fsys)
		defer goose.SetBaseFS(nil)
		return goose.DownTo(db, ".", 0)
	})
}

func (m *migrationManager) each(fn func(db *sql.DB, fsys fs.FS) error) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(m.pool)
	defer func() { _ = db.Close() }()
	for _, fsys := range m.schemas {
		if err := fn(db, fsys); err != nil {
			return err
		}
	}
	return nil
}
