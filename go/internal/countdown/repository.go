package countdown

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcdev12/countdown/go/internal/models"
	"github.com/natefinch/atomic"
	"github.com/rs/zerolog/log"
)

// FileRepository persists the countdown record as a single JSON file.
// Writes go to a temp file in the same directory and are renamed over the
// previous record, so readers see either the old or the new record.
type FileRepository struct {
	path string
}

// NewFileRepository creates a repository backed by the file at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Path returns the backing file location.
func (r *FileRepository) Path() string {
	return r.path
}

// ReadEndTimestamp returns the stored end timestamp. Missing, unreadable or
// malformed records all report ok=false.
func (r *FileRepository) ReadEndTimestamp(ctx context.Context) (int64, bool) {
	if err := ctx.Err(); err != nil {
		return 0, false
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", r.path).Msg("countdown record unreadable, treating as absent")
		}
		return 0, false
	}

	var raw struct {
		EndTimestamp json.RawMessage `json:"endTimestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn().Err(err).Str("path", r.path).Msg("countdown record corrupt, treating as absent")
		return 0, false
	}

	ts, ok := models.ParseTimestamp(raw.EndTimestamp)
	if !ok {
		log.Warn().Str("path", r.path).Msg("countdown record has no numeric endTimestamp, treating as absent")
		return 0, false
	}
	return ts, true
}

// WriteEndTimestamp durably replaces the stored record.
func (r *FileRepository) WriteEndTimestamp(ctx context.Context, endTimestamp int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(models.CountdownRecord{EndTimestamp: endTimestamp})
	if err != nil {
		return fmt.Errorf("marshal countdown record: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create countdown dir: %w", err)
		}
	}

	if err := atomic.WriteFile(r.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write countdown record: %w", err)
	}
	return nil
}
