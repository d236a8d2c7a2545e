package watch

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/felixgeelhaar/riskaudit/pkg/application"
)

// FileImporter turns a catalog document on disk into a catalog.
type FileImporter interface {
	ImportFile(ctx context.Context, path, name string) (*application.ImportResult, error)
}

// ImportHandler observes each import attempt.
type ImportHandler func(path string, res *application.ImportResult, err error)

// ImportWatcher imports catalog documents as they are created or rewritten
// in a directory. A file whose content has not changed since its last
// import is skipped.
type ImportWatcher struct {
	fs       *FSWatcher
	importer FileImporter
	logger   *slog.Logger
	onImport ImportHandler

	mu   sync.Mutex
	seen map[string][sha256.Size]byte
}

func NewImportWatcher(dir string, debounce time.Duration, importer FileImporter, logger *slog.Logger, onImport ImportHandler) (*ImportWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w := &ImportWatcher{
		importer: importer,
		logger:   logger,
		onImport: onImport,
		seen:     make(map[string][sha256.Size]byte),
	}

	fsw, err := NewFSWatcher(debounce, ImportFilter(), w.handle)
	if err != nil {
		return nil, err
	}
	if err := fsw.WatchRecursive(dir); err != nil {
		_ = fsw.watcher.Close()
		return nil, err
	}
	w.fs = fsw
	return w, nil
}

// Run blocks until ctx is cancelled.
func (w *ImportWatcher) Run(ctx context.Context) error {
	return w.fs.Run(ctx)
}

func (w *ImportWatcher) handle(ctx context.Context, ev ChangeEvent) {
	if !ev.imports() {
		return
	}

	// #nosec G304 -- path comes from the watched directory
	data, err := os.ReadFile(ev.Path)
	if err != nil {
		// Removed or renamed before the quiet period ended.
		w.logger.Debug("skipping unreadable file", "path", ev.Path, "error", err)
		return
	}
	if len(data) == 0 {
		return
	}

	sum := sha256.Sum256(data)
	w.mu.Lock()
	if prev, ok := w.seen[ev.Path]; ok && prev == sum {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	res, err := w.importer.ImportFile(ctx, ev.Path, "")
	if err != nil {
		w.logger.Warn("import failed", "path", ev.Path, "error", err)
	} else {
		w.mu.Lock()
		w.seen[ev.Path] = sum
		w.mu.Unlock()
		w.logger.Info("catalog imported",
			"path", ev.Path,
			"catalog_id", res.CatalogID,
			"total", res.Total,
			"success", res.Success,
			"errors", len(res.Errors))
	}
	if w.onImport != nil {
		w.onImport(ev.Path, res, err)
	}
}
