package nfo

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"sagelink/internal/catalog"
	"sagelink/internal/textutil"
)

// UniqueIDType tags the catalog identifier inside descriptors.
const UniqueIDType = "sagetv"

const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>` + "\n"

type uniqueID struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type movie struct {
	XMLName xml.Name `xml:"movie"`

	Title         string `xml:"title"`
	OriginalTitle string `xml:"originaltitle"`
	Year          int    `xml:"year,omitempty"`
	Plot          string `xml:"plot,omitempty"`
	MPAA          string `xml:"mpaa,omitempty"`
	Runtime       int    `xml:"runtime,omitempty"`

	Genres    []string `xml:"genre,omitempty"`
	Directors []string `xml:"director,omitempty"`
	Credits   []string `xml:"credits,omitempty"`

	UniqueID *uniqueID `xml:"uniqueid,omitempty"`
}

type episodeDetails struct {
	XMLName xml.Name `xml:"episodedetails"`

	Title     string `xml:"title"`
	ShowTitle string `xml:"showtitle"`
	Season    int    `xml:"season"`
	Episode   int    `xml:"episode"`
	Plot      string `xml:"plot,omitempty"`
	Year      int    `xml:"year,omitempty"`
	MPAA      string `xml:"mpaa,omitempty"`
	Runtime   int    `xml:"runtime,omitempty"`

	Genres    []string `xml:"genre,omitempty"`
	Directors []string `xml:"director,omitempty"`
	Credits   []string `xml:"credits,omitempty"`

	UniqueID *uniqueID `xml:"uniqueid,omitempty"`
}

type tvShow struct {
	XMLName xml.Name `xml:"tvshow"`

	Title     string   `xml:"title"`
	Premiered string   `xml:"premiered,omitempty"`
	Year      int      `xml:"year,omitempty"`
	Genres    []string `xml:"genre,omitempty"`
}

// Encode renders the descriptor for rec. Episodes use the resolved season and
// episode numbers, which may differ from the record's when they were inferred.
func Encode(rec catalog.Record, season, episode int) ([]byte, error) {
	switch rec.Kind {
	case catalog.KindMovie:
		return Movie(rec)
	case catalog.KindEpisode:
		return Episode(rec, season, episode)
	default:
		return nil, fmt.Errorf("encode descriptor: unsupported media kind %q", rec.Kind)
	}
}

// Movie renders a Kodi/Jellyfin movie descriptor.
func Movie(rec catalog.Record) ([]byte, error) {
	title := strings.TrimSpace(rec.Title)
	return marshal(movie{
		Title:         title,
		OriginalTitle: title,
		Year:          rec.Year,
		Plot:          strings.TrimSpace(rec.Description),
		MPAA:          strings.TrimSpace(rec.Rated),
		Runtime:       minutes(rec.Runtime),
		Genres:        genres(rec.Genre),
		Directors:     textutil.NormalizeList(rec.Directors),
		Credits:       textutil.NormalizeList(rec.Writers),
		UniqueID:      newUniqueID(rec.ID),
	})
}

// Episode renders an episode descriptor. The title falls back to the show
// title when the record has no episode name.
func Episode(rec catalog.Record, season, episode int) ([]byte, error) {
	show := strings.TrimSpace(rec.Title)
	title := strings.TrimSpace(rec.EpisodeTitle)
	if title == "" {
		title = show
	}
	return marshal(episodeDetails{
		Title:     title,
		ShowTitle: show,
		Season:    season,
		Episode:   episode,
		Plot:      strings.TrimSpace(rec.Description),
		Year:      rec.Year,
		MPAA:      strings.TrimSpace(rec.Rated),
		Runtime:   minutes(rec.Runtime),
		Genres:    genres(rec.Genre),
		Directors: textutil.NormalizeList(rec.Directors),
		Credits:   textutil.NormalizeList(rec.Writers),
		UniqueID:  newUniqueID(rec.ID),
	})
}

// Series renders the tvshow.nfo written once per show directory.
func Series(rec catalog.Record) ([]byte, error) {
	show := tvShow{
		Title:  strings.TrimSpace(rec.Title),
		Year:   rec.Year,
		Genres: genres(rec.Genre),
	}
	if rec.Year > 0 {
		show.Premiered = fmt.Sprintf("%04d-01-01", rec.Year)
	}
	return marshal(show)
}

func marshal(v any) ([]byte, error) {
	b, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(header)+len(b)+1)
	out = append(out, header...)
	out = append(out, b...)
	return append(out, '\n'), nil
}

func newUniqueID(id string) *uniqueID {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return &uniqueID{Type: UniqueIDType, Value: id}
}

func minutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d.Round(time.Minute) / time.Minute)
}

// genres splits SageTV's slash-separated category string.
func genres(value string) []string {
	return textutil.SplitList(value, "/")
}
