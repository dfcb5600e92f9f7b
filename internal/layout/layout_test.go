package layout_test

import (
	"path/filepath"
	"testing"

	"sagelink/internal/catalog"
	"sagelink/internal/layout"
)

func newResolver(flat bool) layout.Resolver {
	return layout.Resolver{Root: "/library", MoviesDir: "Movies", TVDir: "TV Shows", FlatMovies: flat}
}

func TestResolveMovieNested(t *testing.T) {
	rec := catalog.Record{ID: "10", Kind: catalog.KindMovie, Title: "Alien: Resurrection", Year: 1997, SourcePath: "/rec/alien.mpg"}
	target, err := newResolver(false).Resolve(rec)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if target.BareName != "Alien- Resurrection (1997)" {
		t.Fatalf("unexpected bare name %q", target.BareName)
	}
	want := filepath.Join("/library", "Movies", "Alien- Resurrection (1997)")
	if target.Dir != want {
		t.Fatalf("dir = %q, want %q", target.Dir, want)
	}
	if target.ShowDir != "" {
		t.Fatalf("unexpected roots %#v", target)
	}
}

func TestResolveMovieFlatWithoutYear(t *testing.T) {
	rec := catalog.Record{ID: "11", Kind: catalog.KindMovie, Title: "Untitled", SourcePath: "/rec/u.mpg"}
	target, err := newResolver(true).Resolve(rec)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if target.BareName != "Untitled" {
		t.Fatalf("unexpected bare name %q", target.BareName)
	}
	if target.Dir != filepath.Join("/library", "Movies") {
		t.Fatalf("flat layout should place movies in the root, got %q", target.Dir)
	}
}

func TestResolveEpisode(t *testing.T) {
	tests := []struct {
		name     string
		rec      catalog.Record
		wantName string
		wantDir  string
	}{
		{
			name:     "numbered",
			rec:      catalog.Record{ID: "1", Kind: catalog.KindEpisode, Title: "Show", Season: 1, Episode: 1, SourcePath: "/rec/Show-1.mpg"},
			wantName: "Show - S01E01",
			wantDir:  "/library/TV Shows/Show/Season 01",
		},
		{
			name:     "episode title",
			rec:      catalog.Record{ID: "2", Kind: catalog.KindEpisode, Title: "Show", Season: 2, Episode: 10, EpisodeTitle: "Pilot?", SourcePath: "/rec/Show-2.mpg"},
			wantName: "Show - S02E10 - Pilot-",
			wantDir:  "/library/TV Shows/Show/Season 02",
		},
		{
			name:     "episode title equal to show",
			rec:      catalog.Record{ID: "3", Kind: catalog.KindEpisode, Title: "News", Season: 1, Episode: 4, EpisodeTitle: "news", SourcePath: "/rec/News.mpg"},
			wantName: "News - S01E04",
			wantDir:  "/library/TV Shows/News/Season 01",
		},
		{
			name:     "numbers from filename",
			rec:      catalog.Record{ID: "4", Kind: catalog.KindEpisode, Title: "Show", SourcePath: "/rec/Show.s03e07.mpg"},
			wantName: "Show - S03E07",
			wantDir:  "/library/TV Shows/Show/Season 03",
		},
		{
			name:     "fallback numbers",
			rec:      catalog.Record{ID: "5", Kind: catalog.KindEpisode, Title: "Show", SourcePath: "/rec/Show-123.mpg"},
			wantName: "Show - S00E01",
			wantDir:  "/library/TV Shows/Show/Season 00",
		},
		{
			name:     "sanitized show",
			rec:      catalog.Record{ID: "6", Kind: catalog.KindEpisode, Title: "Who/What", Season: 1, Episode: 2, SourcePath: "/rec/x.mpg"},
			wantName: "Who-What - S01E02",
			wantDir:  "/library/TV Shows/Who-What/Season 01",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := newResolver(false).Resolve(tt.rec)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if target.BareName != tt.wantName {
				t.Fatalf("bare name = %q, want %q", target.BareName, tt.wantName)
			}
			if target.Dir != filepath.FromSlash(tt.wantDir) {
				t.Fatalf("dir = %q, want %q", target.Dir, tt.wantDir)
			}
			if filepath.Dir(target.Dir) != target.ShowDir {
				t.Fatalf("show dir %q is not the season parent", target.ShowDir)
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	rec := catalog.Record{ID: "1", Kind: catalog.KindEpisode, Title: "Show", Season: 1, Episode: 1, SourcePath: "/rec/a.mpg"}
	r := newResolver(false)
	first, _ := r.Resolve(rec)
	second, _ := r.Resolve(rec)
	if first != second {
		t.Fatalf("resolve not deterministic: %#v vs %#v", first, second)
	}
}

func TestResolveRejectsUnknownKind(t *testing.T) {
	if _, err := newResolver(false).Resolve(catalog.Record{ID: "x", Kind: "music"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestParseEpisodeToken(t *testing.T) {
	cases := []struct {
		in      string
		season  int
		episode int
		ok      bool
	}{
		{"Show.S02E05.mkv", 2, 5, true},
		{"show s1 e3", 1, 3, true},
		{"Show.S.04E-11", 4, 11, true},
		{"Show 2019", 0, 0, false},
	}
	for _, tc := range cases {
		season, episode, ok := layout.ParseEpisodeToken(tc.in)
		if season != tc.season || episode != tc.episode || ok != tc.ok {
			t.Fatalf("ParseEpisodeToken(%q) = %d, %d, %v", tc.in, season, episode, ok)
		}
	}
}
