package maxcompute

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DDLFileName is the per-project table definition file. The DDL is
// expected to carry IF NOT EXISTS so reruns are idempotent.
const DDLFileName = "create-table.sql"

// CreateTable runs <dir>/create-table.sql against the project.
func CreateTable(ctx context.Context, store Store, dir string, log *zap.Logger) error {
	path := filepath.Join(dir, DDLFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	ddl := strings.TrimSpace(string(raw))
	if ddl == "" {
		return fmt.Errorf("%s is empty", path)
	}

	log.Info("executing table DDL", zap.String("file", path))
	if err := store.ExecDDL(ctx, ddl); err != nil {
		return fmt.Errorf("failed to execute %s: %w", path, err)
	}
	log.Info("table created or already present")
	return nil
}
