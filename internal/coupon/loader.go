package coupon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading coupon seed files from a
// local directory.
type fileLoader struct {
	dir    string
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based coupon loader reading every
// .json file in the directory.
func NewFileLoader(dir string, logger zerolog.Logger) Loader {
	return &fileLoader{
		dir:    dir,
		logger: logger.With().Str("component", "coupon-loader").Logger(),
	}
}

// Load reads all seed files in the directory, in name order.
func (l *fileLoader) Load(ctx context.Context) ([]Definition, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		l.logger.Error().Err(err).Str("dir", l.dir).Msg("failed to read coupon seed directory")
		return nil, fmt.Errorf("failed to read coupon seed directory %s: %w", l.dir, err)
	}

	var defs []Definition
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Error().Err(err).Str("file", path).Msg("failed to read coupon seed file")
			return nil, fmt.Errorf("failed to read coupon seed file %s: %w", path, err)
		}

		fileDefs, err := parseDefinitions(path, data)
		if err != nil {
			return nil, err
		}
		defs = append(defs, fileDefs...)

		l.logger.Debug().
			Str("file", path).
			Int("coupons", len(fileDefs)).
			Msg("coupon seed file loaded")
	}

	l.logger.Info().
		Str("dir", l.dir).
		Int("coupons_loaded", len(defs)).
		Msg("coupon seed files loaded")

	return defs, nil
}
