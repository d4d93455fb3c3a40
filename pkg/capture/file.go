package capture

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const fileExt = ".moq"

// FileStore stores captures on the local filesystem, one file per capture.
type FileStore struct {
	dir     string
	maxSize int64
}

// NewFileStore creates a FileStore rooted at dir, creating the directory
// if needed. maxSize bounds a single capture in bytes (0 = no limit).
func NewFileStore(dir string, maxSize int64) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, maxSize: maxSize}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+fileExt)
}

// Save writes the capture to a temporary file and renames it into place,
// so readers never see a partial capture.
func (s *FileStore) Save(ctx context.Context, id string, r io.Reader) (Info, error) {
	if err := checkID(id); err != nil {
		return Info{}, err
	}

	f, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return Info{}, err
	}
	tmp := f.Name()

	_, err = io.Copy(f, limitReader(r, s.maxSize))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = os.Rename(tmp, s.path(id))
	}
	if err != nil {
		os.Remove(tmp)
		return Info{}, err
	}
	return s.stat(id)
}

func (s *FileStore) stat(id string) (Info, error) {
	fi, err := os.Stat(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, ErrNotFound
	}
	if err != nil {
		return Info{}, err
	}
	return Info{ID: id, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

// Open opens the capture file.
func (s *FileStore) Open(_ context.Context, id string) (io.ReadCloser, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// List scans the directory for capture files.
func (s *FileStore) List(_ context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var infos []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id := strings.TrimSuffix(name, fileExt)
		if !ValidID(id) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{ID: id, Size: fi.Size(), ModTime: fi.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}
