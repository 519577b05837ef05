// Package maxcompute runs DDL and table maintenance against a
// MaxCompute (ODPS) project.
package maxcompute

import (
	"context"
	"fmt"
	"time"

	"github.com/aliyun/aliyun-odps-go-sdk/odps"
	"github.com/aliyun/aliyun-odps-go-sdk/odps/account"
	"go.uber.org/zap"

	"github.com/modaops/dwdeploy/internal/config"
)

// TableInfo is the subset of table metadata the janitor needs.
type TableInfo struct {
	Name      string
	CreatedAt time.Time
}

// Store is the narrow ODPS surface used by the table subcommands.
// The SDK-backed store implements it; tests substitute fakes.
type Store interface {
	// ExecDDL runs a DDL statement and waits for it to finish.
	ExecDDL(ctx context.Context, ddl string) error

	// ListTables returns every table in the project with its creation
	// time. Tables whose metadata cannot be loaded carry a zero
	// CreatedAt.
	ListTables(ctx context.Context) ([]TableInfo, error)

	// DropTable drops a table if it exists.
	DropTable(ctx context.Context, name string) error
}

// odpsStore implements Store on the official ODPS SDK.
type odpsStore struct {
	odps *odps.Odps
	log  *zap.Logger
}

var _ Store = (*odpsStore)(nil)

// NewStore connects to the MaxCompute project named in the credentials.
func NewStore(creds *config.Credentials, logger *zap.Logger) (Store, error) {
	if creds == nil {
		return nil, fmt.Errorf("credentials are required")
	}
	if err := creds.ValidateMaxCompute(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	acct := account.NewAliyunAccount(creds.AccessKeyID, creds.AccessKeySecret.Value())
	ins := odps.NewOdps(acct, creds.MaxComputeEndpoint)
	ins.SetDefaultProjectName(creds.MaxComputeProject)

	logger.Debug("maxcompute store initialized",
		zap.String("project", creds.MaxComputeProject))

	return &odpsStore{odps: ins, log: logger}, nil
}

func (s *odpsStore) ExecDDL(ctx context.Context, ddl string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	instance, err := s.odps.ExecSQl(ddl)
	if err != nil {
		return fmt.Errorf("failed to submit DDL: %w", err)
	}
	if err := instance.WaitForSuccess(); err != nil {
		return fmt.Errorf("DDL execution failed: %w", err)
	}
	return nil
}

func (s *odpsStore) ListTables(ctx context.Context) ([]TableInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		infos   []TableInfo
		listErr error
	)
	s.odps.Tables().List(func(t *odps.Table, err error) {
		if err != nil {
			listErr = err
			return
		}
		info := TableInfo{Name: t.Name()}
		// Creation time needs the full metadata load. A table that
		// fails to load is still listed so the janitor can keep it.
		if err := t.Load(); err == nil {
			info.CreatedAt = t.CreatedTime()
		} else {
			s.log.Warn("failed to load table metadata",
				zap.String("table", t.Name()), zap.Error(err))
		}
		infos = append(infos, info)
	})
	if listErr != nil {
		return nil, fmt.Errorf("failed to list tables: %w", listErr)
	}
	return infos, nil
}

func (s *odpsStore) DropTable(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.odps.Tables().Delete(name, true); err != nil {
		return fmt.Errorf("failed to drop table %q: %w", name, err)
	}
	return nil
}
