// internal/storage/open.go
package storage

import (
	"fmt"
	"io"
	"strings"

	"github.com/mwiater/edgebench/internal/appconfig"
	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/logging"
)

// Open builds the repository selected by cfg.Driver. The returned closer must
// be closed when the repository is no longer used.
func Open(cfg appconfig.Store) (benchmark.Repository, io.Closer, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, nil, fmt.Errorf("store path is required for driver %q", cfg.Driver)
	}
	switch strings.ToLower(cfg.Driver) {
	case "", "json":
		repo := NewJSONFile(cfg.Path)
		logging.LogDebug("Using JSON result store at %s", cfg.Path)
		return repo, repo, nil
	case "badger":
		repo, err := OpenBadger(DefaultBadgerConfig(cfg.Path))
		if err != nil {
			return nil, nil, err
		}
		logging.LogDebug("Using badger result store at %s", cfg.Path)
		return repo, repo, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
