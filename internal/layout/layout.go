package layout

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"sagelink/internal/catalog"
	"sagelink/internal/textutil"
)

// SeriesDescriptorName is the per-show descriptor file written beside the
// season directories.
const SeriesDescriptorName = "tvshow.nfo"

var episodePattern = regexp.MustCompile(`[sS][\.\-]?(\d+)\s*[eE][\.\-]?(\d+)`)

// Resolver computes canonical target locations from catalog records.
type Resolver struct {
	Root       string
	MoviesDir  string
	TVDir      string
	FlatMovies bool
}

// Target is the computed location for a record before collision handling.
type Target struct {
	// Dir holds the artifact pair.
	Dir string
	// BareName is the candidate filename without extension.
	BareName string
	// ShowDir is the series directory for episodes; empty for movies.
	ShowDir string
	Season  int
	Episode int
}

// Resolve returns the directory and bare filename for rec. It does no I/O.
func (r Resolver) Resolve(rec catalog.Record) (Target, error) {
	switch rec.Kind {
	case catalog.KindMovie:
		return r.resolveMovie(rec), nil
	case catalog.KindEpisode:
		return r.resolveEpisode(rec), nil
	default:
		return Target{}, fmt.Errorf("resolve %s: unsupported media kind %q", rec.ID, rec.Kind)
	}
}

func (r Resolver) resolveMovie(rec catalog.Record) Target {
	name := MovieName(rec.Title, rec.Year)
	root := filepath.Join(r.Root, r.MoviesDir)
	dir := root
	if !r.FlatMovies {
		dir = filepath.Join(root, name)
	}
	return Target{Dir: dir, BareName: name}
}

func (r Resolver) resolveEpisode(rec catalog.Record) Target {
	show := textutil.SanitizeFileName(rec.Title)
	season, episode := EpisodeNumbers(rec)
	root := filepath.Join(r.Root, r.TVDir)
	showDir := filepath.Join(root, show)
	name := fmt.Sprintf("%s - S%02dE%02d", show, season, episode)
	if title := strings.TrimSpace(rec.EpisodeTitle); title != "" && !strings.EqualFold(title, rec.Title) {
		name += " - " + title
	}
	return Target{
		Dir:      filepath.Join(showDir, SeasonDirName(season)),
		BareName: textutil.SanitizeFileName(name),
		ShowDir:  showDir,
		Season:   season,
		Episode:  episode,
	}
}

// MovieName formats "Title (Year)", omitting an unknown year.
func MovieName(title string, year int) string {
	name := strings.TrimSpace(title)
	if year > 0 {
		name = fmt.Sprintf("%s (%d)", name, year)
	}
	return textutil.SanitizeFileName(name)
}

// SeasonDirName formats the season directory name.
func SeasonDirName(season int) string {
	return fmt.Sprintf("Season %02d", season)
}

// EpisodeNumbers returns the record's season and episode. When both are
// unknown they are parsed from an SxxEyy token in the source filename, falling
// back to season 0 episode 1.
func EpisodeNumbers(rec catalog.Record) (int, int) {
	if rec.Season > 0 || rec.Episode > 0 {
		return rec.Season, rec.Episode
	}
	if season, episode, ok := ParseEpisodeToken(filepath.Base(rec.SourcePath)); ok {
		return season, episode
	}
	return 0, 1
}

// ParseEpisodeToken extracts season and episode numbers from names such as
// "Show.S02E05.mkv" or "show s1 e3".
func ParseEpisodeToken(name string) (int, int, bool) {
	match := episodePattern.FindStringSubmatch(name)
	if match == nil {
		return 0, 0, false
	}
	season, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, 0, false
	}
	episode, err := strconv.Atoi(match[2])
	if err != nil {
		return 0, 0, false
	}
	return season, episode, true
}
