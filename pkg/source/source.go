package source

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vango-dev/weave/internal/errors"
)

// ErrNotFound matches every missing-template error via errors.Is.
var ErrNotFound error = errors.New("W140")

// DefaultMaxSize bounds a template read when no limit is configured.
const DefaultMaxSize = 4 << 20

// Source loads templates by name. Names use forward slashes.
type Source interface {
	Load(ctx context.Context, name string) ([]byte, error)
}

// Dir loads templates from a directory.
type Dir struct {
	root    string
	maxSize int64
}

// NewDir creates a Dir rooted at root. Reads larger than maxSize fail;
// maxSize <= 0 means DefaultMaxSize.
func NewDir(root string, maxSize int64) *Dir {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Dir{root: root, maxSize: maxSize}
}

// Root returns the directory templates are read from.
func (d *Dir) Root() string {
	return d.root
}

// Load reads root/name. Leading ".." segments are dropped, so a name
// never resolves outside the root.
func (d *Dir) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.New("W141").WithTemplate(name).Wrap(err)
	}
	clean, ok := cleanName(name)
	if !ok {
		return nil, notFound(name)
	}

	f, err := os.Open(filepath.Join(d.root, filepath.FromSlash(clean)))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, notFound(name)
		}
		return nil, errors.New("W141").WithTemplate(name).Wrap(err)
	}
	defer f.Close()

	return readLimited(f, name, d.maxSize)
}

// List returns the names of the .html files under the root.
func (d *Dir) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.New("W141").Wrap(err)
	}
	return names, nil
}

// Map serves templates from memory. It is safe for concurrent use.
type Map struct {
	mu        sync.RWMutex
	templates map[string][]byte
}

// NewMap creates a Map holding templates.
func NewMap(templates map[string]string) *Map {
	m := &Map{templates: make(map[string][]byte, len(templates))}
	for name, markup := range templates {
		m.templates[name] = []byte(markup)
	}
	return m
}

// Set stores a template.
func (m *Map) Set(name, markup string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[name] = []byte(markup)
}

// Load returns a copy of the named template.
func (m *Map) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.templates[name]
	if !ok {
		return nil, notFound(name)
	}
	return append([]byte(nil), data...), nil
}

// cleanName normalizes a template name and reports whether it stays
// inside the source root.
func cleanName(name string) (string, bool) {
	if name == "" || strings.Contains(name, "\\") {
		return "", false
	}
	clean := path.Clean("/" + name)[1:]
	if clean == "" || clean == "." {
		return "", false
	}
	return clean, true
}

func notFound(name string) error {
	return errors.New("W140").WithTemplate(name)
}

func readLimited(r io.Reader, name string, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, errors.New("W141").WithTemplate(name).Wrap(err)
	}
	if int64(len(data)) > max {
		return nil, errors.New("W141").
			WithTemplate(name).
			WithDetail("The template is larger than the configured limit.")
	}
	return data, nil
}
