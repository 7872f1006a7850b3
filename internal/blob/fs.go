package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mcoot/roster/internal/dependencies/clock"
)

const metaSuffix = ".meta"

// FSStore maps keys to files under a root directory.
// A sidecar file (name + ".meta") holds the content type.
type FSStore struct {
	root  string
	clock clock.Clock
}

// NewFS returns a filesystem-backed blob store rooted at root, creating it if needed
func NewFS(root string, clk clock.Clock) (*FSStore, error) {
	if root == "" {
		root = "./data/blobs"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{root: root, clock: clk}, nil
}

func (s *FSStore) Driver() Driver { return DriverFilesystem }

// sanitizeKey forbids empty keys, absolute keys and path traversal
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty blob key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("absolute blob key %q", key)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

type metaFile struct {
	ContentType string `json:"contentType,omitempty"`
}

func (s *FSStore) pathFor(key string) (string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(k)), nil
}

func (s *FSStore) Put(_ context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	dataPath, err := s.pathFor(key)
	if err != nil {
		return Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return Info{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".tmp-*")
	if err != nil {
		return Info{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	size, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return Info{}, err
	}
	if err := tmp.Close(); err != nil {
		return Info{}, err
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return Info{}, err
	}

	meta, err := json.Marshal(metaFile{ContentType: opts.ContentType})
	if err != nil {
		return Info{}, err
	}
	if err := os.WriteFile(dataPath+metaSuffix, meta, 0o644); err != nil {
		return Info{}, err
	}

	return Info{Key: key, Size: size, ContentType: opts.ContentType, LastModified: s.clock.Now().UTC()}, nil
}

func (s *FSStore) Get(_ context.Context, key string) (Info, io.ReadCloser, error) {
	dataPath, err := s.pathFor(key)
	if err != nil {
		return Info{}, nil, err
	}
	file, err := os.Open(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, nil, ErrNotFound
	}
	if err != nil {
		return Info{}, nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return Info{}, nil, err
	}

	info := Info{Key: key, Size: stat.Size(), LastModified: stat.ModTime().UTC()}
	if raw, err := os.ReadFile(dataPath + metaSuffix); err == nil {
		var mf metaFile
		if json.Unmarshal(raw, &mf) == nil {
			info.ContentType = mf.ContentType
		}
	}
	return info, file, nil
}

func (s *FSStore) Delete(_ context.Context, key string) error {
	dataPath, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dataPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	_ = os.Remove(dataPath + metaSuffix)
	return nil
}

func (s *FSStore) List(_ context.Context, prefix string) ([]Info, error) {
	infos := []Info{}
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metaSuffix) || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		stat, err := d.Info()
		if err != nil {
			return err
		}
		infos = append(infos, Info{Key: key, Size: stat.Size(), LastModified: stat.ModTime().UTC()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
