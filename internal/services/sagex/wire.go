package sagex

import (
	"strconv"
	"strings"
	"time"

	"sagelink/internal/catalog"
	"sagelink/internal/textutil"
)

// mediaFileList is the GetMediaFiles response body. Only the fields the
// library needs are decoded.
type mediaFileList struct {
	MediaFiles []mediaFile `xml:"MediaFile"`
}

type mediaFile struct {
	MediaFileID  string             `xml:"MediaFileID"`
	MediaTitle   string             `xml:"MediaTitle"`
	FileDuration string             `xml:"FileDuration"`
	SegmentFiles []string           `xml:"SegmentFiles>File"`
	Airing       airing             `xml:"Airing"`
	Metadata     metadataProperties `xml:"MediaFileMetadataProperties"`
}

type airing struct {
	Show show `xml:"Show"`
}

type show struct {
	IsMovie           string `xml:"IsMovie"`
	ShowTitle         string `xml:"ShowTitle"`
	ShowYear          string `xml:"ShowYear"`
	ShowDescription   string `xml:"ShowDescription"`
	ShowEpisode       string `xml:"ShowEpisode"`
	ShowEpisodeNumber string `xml:"ShowEpisodeNumber"`
	ShowSeasonNumber  string `xml:"ShowSeasonNumber"`
	ShowRated         string `xml:"ShowRated"`
}

type metadataProperties struct {
	Description string `xml:"Description"`
	Genre       string `xml:"Genre"`
	Writer      string `xml:"Writer"`
	Director    string `xml:"Director"`
}

// toRecord maps a decoded media file onto the explicit record schema. Required
// fields are not checked here; catalog.Record.Validate does that.
func (m mediaFile) toRecord() catalog.Record {
	s := m.Airing.Show
	kind := catalog.KindEpisode
	if strings.EqualFold(strings.TrimSpace(s.IsMovie), "true") {
		kind = catalog.KindMovie
	}
	title := firstNonEmpty(s.ShowTitle, m.MediaTitle)

	rec := catalog.Record{
		ID:           strings.TrimSpace(m.MediaFileID),
		Kind:         kind,
		Title:        title,
		Season:       atoi(s.ShowSeasonNumber),
		Episode:      atoi(s.ShowEpisodeNumber),
		EpisodeTitle: strings.TrimSpace(s.ShowEpisode),
		Description:  firstNonEmpty(s.ShowDescription, m.Metadata.Description),
		Year:         atoi(s.ShowYear),
		Genre:        strings.TrimSpace(m.Metadata.Genre),
		Rated:        strings.TrimSpace(s.ShowRated),
		Runtime:      time.Duration(atoi64(m.FileDuration)) * time.Millisecond,
		Directors:    textutil.SplitList(m.Metadata.Director, ";"),
		Writers:      textutil.SplitList(m.Metadata.Writer, ";"),
	}
	if len(m.SegmentFiles) > 0 {
		rec.SourcePath = strings.TrimSpace(m.SegmentFiles[0])
	}
	return rec
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func atoi(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func atoi64(value string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
