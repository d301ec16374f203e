package loam

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/schema"
	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude matches every document in the repository.
const DefaultInclude = "**"

// Loader builds a schema from a directory of markdown (or YAML/JSON) documents
// managed by Loam. Each document is one dialog: its frontmatter uses the same
// keys as a dialog in a YAML schema and its body becomes the dialog text.
type Loader struct {
	Repo    *loam.TypedRepository[Metadata]
	include string
	logger  *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithInclude restricts loading to documents whose id matches a doublestar
// pattern, e.g. "dialogs/**". Ids are slash separated paths without the file
// extension.
func WithInclude(pattern string) Option {
	return func(l *Loader) {
		if pattern != "" {
			l.include = pattern
		}
	}
}

// WithLogger sets the logger used to report skipped documents.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[Metadata], opts ...Option) *Loader {
	l := &Loader{
		Repo:    repo,
		include: DefaultInclude,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open initializes a read-only Loam repository at path and wraps it in a Loader.
func Open(path string, opts ...Option) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode keeps numbers consistent across markdown and JSON documents.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[Metadata](repo), opts...), nil
}

// Load reads every included document and builds a raw schema, resolving action
// names through reg. The result still needs schema.Compile.
func Load(ctx context.Context, path string, reg *schema.Registry, opts ...Option) (domain.Schema, error) {
	l, err := Open(path, opts...)
	if err != nil {
		return domain.Schema{}, err
	}
	return l.Load(ctx, reg)
}

// Load builds a raw schema from the repository.
func (l *Loader) Load(ctx context.Context, reg *schema.Registry) (domain.Schema, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return domain.Schema{}, fmt.Errorf("loam list failed: %w", err)
	}

	var (
		index Metadata
		specs []schema.DialogSpec
	)
	seen := make(map[string]string)

	for _, entry := range docs {
		if !l.included(entry.ID) {
			l.logger.Debug("skipping document", "path", entry.ID)
			continue
		}

		// Listing only carries metadata; the body needs a full read.
		doc, err := l.Repo.Get(ctx, entry.ID)
		if err != nil {
			return domain.Schema{}, fmt.Errorf("loam get failed for %s: %w", entry.ID, err)
		}

		id := doc.Data.ID()
		if id == "" {
			id = entry.ID
		}
		id = trimExtension(id)

		if existingPath, ok := seen[id]; ok {
			return domain.Schema{}, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, entry.ID)
		}
		seen[id] = entry.ID

		if id == IndexID {
			index = doc.Data
			continue
		}

		spec, err := doc.Data.Dialog(id, doc.Content)
		if err != nil {
			return domain.Schema{}, err
		}
		specs = append(specs, spec)
	}

	// Repository listing order depends on the filesystem.
	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })

	var out schema.Document
	if index != nil {
		if out, err = index.Index(); err != nil {
			return domain.Schema{}, err
		}
	}
	out.Dialogs = specs
	return schema.Build(out, reg)
}

func (l *Loader) included(path string) bool {
	ok, err := doublestar.Match(l.include, filepath.ToSlash(path))
	return err == nil && ok
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch reports the path of every changed document until ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				if !l.included(evt.ID) {
					continue
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
