package refetch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
)

// FileSource watches a JSON configuration file and emits a Config snapshot
// whenever the file is written. Snapshots that fail to read or decode are
// skipped; the source keeps watching.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for the given file path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Watch begins watching the file and returns a channel that emits decoded
// configurations. The current file contents are emitted immediately to
// support initial configuration loading.
func (s *FileSource) Watch(ctx context.Context) (<-chan Config, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(s.path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config file %s: %w", s.path, err)
	}

	out := make(chan Config)

	go func() {
		defer close(out)
		defer watcher.Close()

		// Emit initial contents
		if cfg, err := s.load(); err == nil {
			select {
			case out <- cfg:
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// Only emit on write or create events
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				cfg, err := s.load()
				if err != nil {
					continue
				}

				select {
				case out <- cfg:
				case <-ctx.Done():
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Continue watching despite errors
			}
		}
	}()

	return out, nil
}

// load reads and decodes the configuration file.
func (s *FileSource) load() (Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config file: %w", err)
	}
	return cfg, nil
}
