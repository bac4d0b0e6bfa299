// Package loam reads calendar definitions from a Loam document repository.
// A calendar is a markdown file whose frontmatter carries the resource name
// and working hours:
//
//	---
//	resource: crew-a
//	hours:
//	  monday: ["09:00-12:00", "14:00-17:00"]
//	  friday: ["09:00-15:00"]
//	---
//	Crew A covers the north-side routes.
//
// The body below the frontmatter is free-form notes and is ignored. JSON
// and YAML documents with the same keys work as well.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/perennial/pkg/booking"
)

// CalendarDocument is the frontmatter of a calendar file. It uses
// "mapstructure" tags to match the frontmatter/YAML keys.
type CalendarDocument struct {
	Resource string              `json:"resource" mapstructure:"resource"`
	Hours    map[string][]string `json:"hours" mapstructure:"hours"`
}

// CalendarLoader reads calendar documents from a Loam repository.
type CalendarLoader struct {
	Repo *loam.TypedRepository[CalendarDocument]
}

var _ booking.WatchableSource = (*CalendarLoader)(nil)

// New wraps an already initialized typed repository.
func New(repo *loam.TypedRepository[CalendarDocument]) *CalendarLoader {
	return &CalendarLoader{
		Repo: repo,
	}
}

// Open initializes a Loam repository rooted at dir and returns a loader
// over it. Strict mode keeps numeric types consistent across the markdown
// and JSON adapters, and read-only mode avoids Loam's sandbox behavior:
// the loader never modifies calendar documents, only reads them.
func Open(dir string) (*CalendarLoader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar dir: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("open calendar dir %q: %w", dir, err)
	}

	return New(loam.NewTypedRepository[CalendarDocument](repo)), nil
}

// Load reads one calendar document and builds a fresh booking system with
// its working hours. The id is the file name without extension; Loam
// resolves "crew-a" to crew-a.md.
func (l *CalendarLoader) Load(ctx context.Context, id string) (*booking.System, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load calendar %q: %w", id, err)
	}

	cfg := booking.ScheduleConfig{
		Resource: doc.Data.Resource,
		Hours:    doc.Data.Hours,
	}
	if cfg.Resource == "" {
		// Errors out of Apply name the resource; fall back to the file id
		// so a calendar without the frontmatter key still reads well.
		cfg.Resource = trimExtension(doc.ID)
	}

	return cfg.System()
}

// List returns the calendar ids in the repository, sorted, with file
// extensions stripped. Two files that normalize to the same id are an
// error rather than a silent pick.
func (l *CalendarLoader) List(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}

	seen := make(map[string]string, len(docs))
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := trimExtension(doc.ID)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: calendar %q is defined in both %q and %q", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}

	slices.Sort(ids)
	return ids, nil
}

// Watch streams the ids of calendar documents as they change on disk,
// normalized the same way List normalizes them. The channel closes when
// ctx is canceled or the underlying watcher stops.
func (l *CalendarLoader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("watch calendar dir: %w", err)
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
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
