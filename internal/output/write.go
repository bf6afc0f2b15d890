package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes data to path so that readers see either the previous
// file or the complete new one, never a partial write.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	st, err := Stage(path, data, perm)
	if err != nil {
		return err
	}
	return st.Commit()
}

// Staged is file content that has been written next to its destination
// but not yet moved into place.
type Staged struct {
	tmp  string
	path string
}

// Stage writes data to a temp file in the directory of path. The previous
// content of path is untouched until Commit.
//
// Implementation details:
//   - Ensures the parent directory exists (0755).
//   - Syncs and chmods the temp file so Commit is a single rename.
//   - The temp file is removed on every error path.
func Stage(path string, data []byte, perm os.FileMode) (*Staged, error) {
	if path == "" {
		return nil, errors.New("output: path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("output: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("output: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(format string, err error) (*Staged, error) {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf(format, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("output: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("output: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("output: close: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("output: chmod: %w", err)
	}

	return &Staged{tmp: tmpName, path: path}, nil
}

// Commit moves the staged content into place.
func (s *Staged) Commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		os.Remove(s.tmp)
		return fmt.Errorf("output: rename: %w", err)
	}
	return nil
}

// Discard drops the staged content and leaves the destination as it was.
func (s *Staged) Discard() {
	os.Remove(s.tmp)
}
