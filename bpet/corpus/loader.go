package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sourcegraph/conc/pool"
)

// IgnoreChecker reports whether a path relative to the corpus root is
// excluded.
type IgnoreChecker interface {
	MatchesPath(path string) bool
}

// Loader reads training text from a directory tree. Every matching file is
// one text.
type Loader struct {
	dir        string
	extensions map[string]bool
	ignoreFile string
	workers    int
	logger     zerolog.Logger
}

type Option func(*Loader)

// WithExtensions restricts loading to files with these extensions. An empty
// list accepts every file.
func WithExtensions(exts ...string) Option {
	return func(l *Loader) {
		l.extensions = make(map[string]bool, len(exts))
		for _, e := range exts {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			l.extensions[e] = true
		}
	}
}

// WithIgnoreFile names the gitignore-style file looked up in the corpus root.
func WithIgnoreFile(name string) Option {
	return func(l *Loader) { l.ignoreFile = name }
}

func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{
		dir:        dir,
		extensions: map[string]bool{".txt": true},
		workers:    4,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Ignore compiles the loader's ignore file. It returns nil when the file
// does not exist.
func (l *Loader) Ignore() (IgnoreChecker, error) {
	if l.ignoreFile == "" {
		return nil, nil
	}
	ignorePath := filepath.Join(l.dir, l.ignoreFile)

	if _, err := os.Stat(ignorePath); err == nil {
		ignored, err := ignore.CompileIgnoreFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("error reading %s file: %w", l.ignoreFile, err)
		}
		return ignored, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error checking for %s file: %w", l.ignoreFile, err)
	}
	return nil, nil
}

// Files lists the corpus files in lexical order, relative to the root.
func (l *Loader) Files() ([]string, error) {
	ignored, err := l.Ignore()
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(l.dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || (ignored != nil && ignored.MatchesPath(rel+"/")) {
				l.logger.Debug().Str("path", rel).Msg("skipping directory")
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || d.Name() == l.ignoreFile {
			return nil
		}
		if ignored != nil && ignored.MatchesPath(rel) {
			l.logger.Debug().Str("path", rel).Msg("ignoring file")
			return nil
		}
		if len(l.extensions) > 0 && !l.extensions[strings.ToLower(filepath.Ext(rel))] {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus directory %s: %w", l.dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Load reads every corpus file concurrently. Texts are returned in the
// order of Files so training stays reproducible.
func (l *Loader) Load(ctx context.Context) ([]string, error) {
	files, err := l.Files()
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(files))
	var bytesRead int64

	p := pool.New().WithMaxGoroutines(l.workers).WithContext(ctx).WithCancelOnError()
	for i, rel := range files {
		i, rel := i, rel
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(l.dir, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("failed to read corpus file %s: %w", rel, err)
			}
			atomic.AddInt64(&bytesRead, int64(len(data)))
			texts[i] = string(data)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("dir", l.dir).
		Int("files", len(files)).
		Int64("bytes", bytesRead).
		Msg("corpus loaded")
	return texts, nil
}
