package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"sagelink/internal/services"
)

// MediaKind distinguishes movies from television episodes.
type MediaKind string

const (
	KindMovie   MediaKind = "movie"
	KindEpisode MediaKind = "episode"
)

// Record is one catalog entry as supplied by the fetcher. It is immutable
// within a run.
type Record struct {
	ID           string
	Kind         MediaKind
	Title        string
	Season       int
	Episode      int
	EpisodeTitle string
	Description  string
	Year         int
	Genre        string
	Rated        string
	Runtime      time.Duration
	Directors    []string
	Writers      []string
	SourcePath   string
	ModTime      time.Time
}

// IsMovie reports whether the record is a feature film.
func (r Record) IsMovie() bool {
	return r.Kind == KindMovie
}

// Validate rejects records that are missing required fields.
func (r Record) Validate() error {
	var problems []string
	if strings.TrimSpace(r.ID) == "" {
		problems = append(problems, "id is required")
	}
	switch r.Kind {
	case KindMovie, KindEpisode:
	case "":
		problems = append(problems, "kind is required")
	default:
		problems = append(problems, fmt.Sprintf("unknown kind %q", r.Kind))
	}
	if strings.TrimSpace(r.Title) == "" {
		problems = append(problems, "title is required")
	}
	if strings.TrimSpace(r.SourcePath) == "" {
		problems = append(problems, "source path is required")
	} else if !filepath.IsAbs(r.SourcePath) {
		problems = append(problems, "source path must be absolute")
	}
	if r.Season < 0 || r.Episode < 0 {
		problems = append(problems, "season and episode must not be negative")
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(services.ErrValidation, "catalog", "validate record", strings.Join(problems, "; "), nil)
}
