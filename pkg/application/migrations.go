package application

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationManager applies module schemas embedded at build time. Schemas
// are written to be idempotent (CREATE TABLE IF NOT EXISTS) so repeated runs
// are safe.
type MigrationManager interface {
	RegisterSchema(fs *embed.FS)
	Run() error
}

func NewMigrationManager(pool *pgxpool.Pool) MigrationManager {
	return &migrationManager{pool: pool}
}

type migrationManager struct {
	pool    *pgxpool.Pool
	schemas []*embed.FS
}

func (m *migrationManager) RegisterSchema(fs *embed.FS) {
	m.schemas = append(m.schemas, fs)
}

func (m *migrationManager) Run() error {
	if m.pool == nil {
		return fmt.Errorf("migrations: no database pool configured")
	}

	ctx := context.Background()
	for _, schema := range m.schemas {
		files, err := sqlFiles(schema)
		if err != nil {
			return err
		}
		for _, file := range files {
			contents, err := schema.ReadFile(file)
			if err != nil {
				return fmt.Errorf("migrations: read %s: %w", file, err)
			}
			if _, err := m.pool.Exec(ctx, string(contents)); err != nil {
				return fmt.Errorf("migrations: apply %s: %w", file, err)
			}
		}
	}
	return nil
}

func sqlFiles(fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".sql") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("migrations: walk schema fs: %w", err)
	}
	sort.Strings(files)
	return files, nil
}
