package cart

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/metinatakli/pcbuilder/internal/domain"
)

// FileRepository keeps each key's snapshot in its own JSON file under dir.
type FileRepository struct {
	dir string
}

func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{dir: dir}
}

func (r *FileRepository) Get(ctx context.Context, key string) (*domain.CartState, error) {
	data, err := os.ReadFile(r.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, fmt.Errorf("read cart state: %w", err)
	}

	return Decode(data)
}

// Save writes to a temp file first so a crash never leaves a half-written snapshot.
func (r *FileRepository) Save(ctx context.Context, key string, state domain.CartState) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}

	err = os.MkdirAll(r.dir, 0o755)
	if err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write cart state: %w", err)
	}

	err = os.Rename(tmp.Name(), r.path(key))
	if err != nil {
		return fmt.Errorf("replace cart state: %w", err)
	}

	return nil
}

// Update is a plain read-modify-write. The CLI is the file's only writer.
func (r *FileRepository) Update(ctx context.Context, key string, fn func(state *domain.CartState) error) error {
	state := domain.NewCartState()

	stored, err := r.Get(ctx, key)
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
	case err != nil:
		return err
	default:
		state = *stored
	}

	err = fn(&state)
	if err != nil {
		return err
	}

	return r.Save(ctx, key, state)
}

func (r *FileRepository) Delete(ctx context.Context, key string) error {
	err := os.Remove(r.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete cart state: %w", err)
	}

	return nil
}

func (r *FileRepository) path(key string) string {
	return filepath.Join(r.dir, key+".json")
}
