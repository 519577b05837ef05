package maxcompute

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultCleanAge is how old a table must be before the janitor drops it.
const DefaultCleanAge = 30 * 24 * time.Hour

// DefaultWhitelist names tables the janitor never drops.
var DefaultWhitelist = []string{
	"product_dim",
	"user_dim",
	"core_metrics",
}

// CleanOptions configures a janitor run.
type CleanOptions struct {
	// MaxAge drops tables created before now-MaxAge. Zero means
	// DefaultCleanAge.
	MaxAge time.Duration
	// Execute actually drops tables. False is a dry run.
	Execute bool
	// Whitelist tables are never dropped. Nil means DefaultWhitelist.
	Whitelist []string
}

// CleanResult summarizes a janitor run.
type CleanResult struct {
	Deleted     int
	Kept        int
	Whitelisted int
}

// CleanTables drops tables older than the threshold, skipping the
// whitelist. With Execute false it only reports what would be dropped.
// A drop failure is logged and counted as kept; the run continues.
func CleanTables(ctx context.Context, store Store, opts CleanOptions, log *zap.Logger) (*CleanResult, error) {
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultCleanAge
	}
	whitelist := opts.Whitelist
	if whitelist == nil {
		whitelist = DefaultWhitelist
	}
	protected := make(map[string]struct{}, len(whitelist))
	for _, name := range whitelist {
		protected[name] = struct{}{}
	}

	threshold := time.Now().Add(-maxAge)
	log.Info("cleaning tables",
		zap.Time("threshold", threshold),
		zap.Bool("dry_run", !opts.Execute))

	tables, err := store.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	result := &CleanResult{}
	for _, t := range tables {
		if _, ok := protected[t.Name]; ok {
			log.Info("table whitelisted, keeping", zap.String("table", t.Name))
			result.Whitelisted++
			continue
		}
		if t.CreatedAt.IsZero() || !t.CreatedAt.Before(threshold) {
			result.Kept++
			continue
		}

		if !opts.Execute {
			log.Info("would drop table (dry run)",
				zap.String("table", t.Name), zap.Time("created", t.CreatedAt))
			result.Deleted++
			continue
		}

		if err := store.DropTable(ctx, t.Name); err != nil {
			log.Error("failed to drop table", zap.String("table", t.Name), zap.Error(err))
			result.Kept++
			continue
		}
		log.Info("dropped table",
			zap.String("table", t.Name), zap.Time("created", t.CreatedAt))
		result.Deleted++
	}

	log.Info("clean complete",
		zap.Int("deleted", result.Deleted),
		zap.Int("kept", result.Kept),
		zap.Int("whitelisted", result.Whitelisted))
	return result, nil
}

// String renders the result for command output.
func (r *CleanResult) String() string {
	return fmt.Sprintf("deleted=%d kept=%d whitelisted=%d", r.Deleted, r.Kept, r.Whitelisted)
}
