package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/goccy/go-json"

	"github.com/filmorate/backend/internal/logging"
	"github.com/filmorate/backend/internal/repositories"
)

// Sink stores a rendered snapshot under key and returns its location.
type Sink interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
}

// Snapshot is the archived form of the film catalog.
type Snapshot struct {
	ExportedAt time.Time      `json:"exportedAt"`
	Films      []SnapshotFilm `json:"films"`
}

// SnapshotFilm flattens a film's relations to names.
type SnapshotFilm struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ReleaseDate string   `json:"releaseDate"`
	Duration    int      `json:"duration"`
	Mpa         string   `json:"mpa"`
	Genres      []string `json:"genres"`
	Directors   []string `json:"directors"`
	Likes       int64    `json:"likes"`
}

// Exporter writes catalog snapshots to a Sink.
type Exporter struct {
	films  repositories.FilmRepository
	sink   Sink
	prefix string
	now    func() time.Time
}

// NewExporter constructs an exporter writing objects under prefix.
func NewExporter(films repositories.FilmRepository, sink Sink, prefix string) *Exporter {
	return &Exporter{films: films, sink: sink, prefix: prefix, now: time.Now}
}

// Export snapshots every film with its current like count.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.Export")
	defer span.End()

	films, err := e.films.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list films: %w", err)
	}

	exportedAt := e.now().UTC()
	snapshot := Snapshot{ExportedAt: exportedAt, Films: make([]SnapshotFilm, 0, len(films))}
	for _, f := range films {
		entry := SnapshotFilm{
			ID:          f.ID,
			Name:        f.Name,
			Description: f.Description,
			ReleaseDate: f.ReleaseDate.Format(time.DateOnly),
			Duration:    f.Duration,
			Mpa:         f.Mpa.Name,
			Genres:      make([]string, 0, len(f.Genres)),
			Directors:   make([]string, 0, len(f.Directors)),
			Likes:       f.Likes,
		}
		for _, g := range f.Genres {
			entry.Genres = append(entry.Genres, g.Name)
		}
		for _, d := range f.Directors {
			entry.Directors = append(entry.Directors, d.Name)
		}
		snapshot.Films = append(snapshot.Films, entry)
	}

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := path.Join(e.prefix, "films-"+exportedAt.Format("20060102T150405Z")+".json")
	location, err := e.sink.Save(ctx, key, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}

	logging.FromContext(ctx).Info("catalog exported", "films", len(snapshot.Films), "location", location)
	return location, nil
}
