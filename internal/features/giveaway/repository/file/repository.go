// Package file persists giveaway records as a single flat JSON document,
// one entry per record keyed by id. Every mutation is a serialized
// load-merge-save cycle; the file is replaced atomically so a failed write
// leaves the previous durable state intact.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sc-discord-bot/internal/features/giveaway/models"
	"sc-discord-bot/internal/features/giveaway/repository"
)

type fileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) repository.GiveawayRepository {
	return &fileRepository{path: path}
}

// load reads the full persisted set. A missing or corrupt file yields an
// empty mapping rather than an error.
func (r *fileRepository) load() map[string]*models.Giveaway {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return map[string]*models.Giveaway{}
	}
	records := map[string]*models.Giveaway{}
	if err := json.Unmarshal(data, &records); err != nil {
		return map[string]*models.Giveaway{}
	}
	return records
}

// save atomically overwrites the full persisted set.
func (r *fileRepository) save(records map[string]*models.Giveaway) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

func (r *fileRepository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.load()[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}
	return g, nil
}

func (r *fileRepository) Save(ctx context.Context, giveaway *models.Giveaway) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.load()
	records[giveaway.ID] = giveaway
	return r.save(records)
}

func (r *fileRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.load()
	if _, ok := records[id]; !ok {
		return repository.ErrGiveawayNotFound
	}
	delete(records, id)
	return r.save(records)
}

func (r *fileRepository) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.load()[id]
	return ok, nil
}

func (r *fileRepository) List(ctx context.Context) ([]*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.load()
	out := make([]*models.Giveaway, 0, len(records))
	for _, g := range records {
		out = append(out, g)
	}
	return out, nil
}
