package ingest

import (
	"context"
	"log"
	"time"

	"github.com/geocampo/wellflow/internal/models"
)

// WatchStorage extends Storage with the imported-file inventory the watcher
// uses to skip files already pulled from the drop.
type WatchStorage interface {
	Storage
	ImportedFiles() ([]models.ImportedFile, error)
}

// Watcher polls the FTP drop on an interval and imports any new vendor
// files unattended. Channel configuration is detected from the first file
// of each batch; batches whose first file fails detection are skipped and
// retried on the next poll.
type Watcher struct {
	store    WatchStorage
	drop     *DropClient
	interval time.Duration
}

func NewWatcher(store WatchStorage, drop *DropClient, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Watcher{store: store, drop: drop, interval: interval}
}

func (w *Watcher) Run(ctx context.Context) {
	w.poll()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	existing, err := w.store.ImportedFiles()
	if err != nil {
		log.Printf("watch: list imported files: %v", err)
		return
	}
	imported := make(map[string]bool, len(existing))
	for _, f := range existing {
		imported[f.FileName] = true
	}

	files, err := w.drop.FetchNew(imported)
	if err != nil {
		log.Printf("watch: fetch drop: %v", err)
		return
	}
	if len(files) == 0 {
		return
	}
	log.Printf("watch: %d new files in drop", len(files))

	channels, err := DetectChannels(string(files[0].Data))
	if err != nil {
		log.Printf("watch: detect channels in %s: %v", files[0].Name, err)
		return
	}
	if len(channels) == 0 {
		log.Printf("watch: no channels detected in %s, skipping batch", files[0].Name)
		return
	}

	importer := NewImporter(w.store, channels)
	if err := importer.Run(files); err != nil {
		log.Printf("watch: import: %v", err)
	}
	for _, msg := range importer.Diagnostics() {
		log.Printf("watch: %s", msg)
	}
}
