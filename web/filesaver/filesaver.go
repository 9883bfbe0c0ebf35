package filesaver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Saver writes images into a directory. It implements model.Saver.
type Saver struct {
	dir string
}

// New returns saver writing into dir. The directory is created on first save.
func New(dir string) *Saver {
	return &Saver{dir: dir}
}

// SaveFile writes data as dir/name. Only the base of name is used.
func (s *Saver) SaveFile(ctx context.Context, data []byte, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return fmt.Errorf("invalid file name %q", name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, base)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Path returns location name is saved to.
func (s *Saver) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}
