// Package backup periodically uploads the persisted collection files
// to remote snapshot storage.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotStorage receives collection snapshots
// Interface is defined here (consumer) not in the storage package (provider)
type SnapshotStorage interface {
	UploadSnapshot(ctx context.Context, name string, data []byte) (string, error)
}

// Processor uploads every JSON collection in the data directory. It
// implements the scheduler's Processor and runs on the backup loop.
type Processor struct {
	dir     string
	storage SnapshotStorage
	logger  *slog.Logger
}

// New creates a backup processor for the given data directory
func New(dir string, storage SnapshotStorage, logger *slog.Logger) *Processor {
	return &Processor{dir: dir, storage: storage, logger: logger}
}

// Process uploads a snapshot of each collection file. A failed upload
// is logged and the remaining collections are still attempted.
func (p *Processor) Process(ctx context.Context) error {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return fmt.Errorf("reading data dir: %w", err)
	}

	var failed int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(p.dir, e.Name()))
		if err != nil {
			p.logger.Error("reading collection for backup failed", "file", e.Name(), "error", err)
			failed++
			continue
		}

		name := strings.TrimSuffix(e.Name(), ".json")
		key, err := p.storage.UploadSnapshot(ctx, name, data)
		if err != nil {
			p.logger.Error("uploading backup failed", "collection", name, "error", err)
			failed++
			continue
		}

		p.logger.Info("collection backed up", "collection", name, "key", key)
	}

	if failed > 0 {
		return fmt.Errorf("%d collection backups failed", failed)
	}
	return nil
}
