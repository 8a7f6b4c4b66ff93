package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/spotifsc/internal/shared"
	tu "github.com/desertthunder/spotifsc/internal/testing"
)

func newTestAudioDB(url string) *AudioDBService {
	return NewAudioDBService(AudioDBOpts{BaseURL: url, Logger: shared.NewLogger(&bytes.Buffer{})})
}

func writeTracks(t *testing.T, w http.ResponseWriter, tracks []map[string]any) {
	t.Helper()
	body := map[string]any{"track": tracks}
	if tracks == nil {
		body["track"] = nil
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestAudioDBService(t *testing.T) {
	t.Run("NewAudioDBService", func(t *testing.T) {
		t.Run("defaults", func(t *testing.T) {
			svc := NewAudioDBService(AudioDBOpts{})
			if svc.baseURL != defaultAudioDBBaseURL {
				t.Errorf("expected baseURL %s, got %s", defaultAudioDBBaseURL, svc.baseURL)
			}
			if svc.httpClient.Timeout != defaultAudioDBTimeout {
				t.Errorf("expected timeout %v, got %v", defaultAudioDBTimeout, svc.httpClient.Timeout)
			}
			if len(svc.artists) != 5 || svc.perArtist != 2 || svc.popularLimit != 10 {
				t.Errorf("unexpected popular defaults: %v %d %d", svc.artists, svc.perArtist, svc.popularLimit)
			}
		})

		t.Run("from config", func(t *testing.T) {
			cfg := shared.DefaultConfig().AudioDB
			cfg.BaseURL = "http://localhost:9000/"
			svc := NewAudioDBServiceFromConfig(cfg, shared.NewLogger(&bytes.Buffer{}))
			if svc.baseURL != "http://localhost:9000" {
				t.Errorf("expected trailing slash trimmed, got %s", svc.baseURL)
			}
		})
	})

	t.Run("SearchExact", func(t *testing.T) {
		t.Run("blank inputs make no request", func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
			}))
			defer server.Close()

			svc := newTestAudioDB(server.URL)
			for _, in := range [][2]string{{"", "Imagine"}, {"Queen", ""}, {"   ", "Imagine"}, {"Queen", "\t"}} {
				if got := svc.SearchExact(context.Background(), in[0], in[1]); len(got) != 0 {
					t.Errorf("SearchExact(%q, %q) = %v, want empty", in[0], in[1], got)
				}
			}
			if hits.Load() != 0 {
				t.Errorf("expected no requests, got %d", hits.Load())
			}
		})

		t.Run("normalizes results", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/searchtrack.php" {
					t.Errorf("expected path /searchtrack.php, got %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("s"); got != "John Lennon" {
					t.Errorf("expected artist John Lennon, got %q", got)
				}
				if got := r.URL.Query().Get("t"); got != "Imagine" {
					t.Errorf("expected title Imagine, got %q", got)
				}
				writeTracks(t, w, []map[string]any{
					{"idTrack": "32793500", "strTrack": "Imagine", "strArtist": "John Lennon", "strGenre": "Pop",
						"intYearReleased": "1971", "strTrackThumb": "https://img/1.jpg", "strDescriptionEN": "desc"},
					{"idTrack": 42, "strTrack": "Imagine (Live)", "strArtist": "John Lennon", "strGenre": nil,
						"intYearReleased": "unknown"},
				})
			}))
			defer server.Close()

			got := newTestAudioDB(server.URL).SearchExact(context.Background(), "  John Lennon ", " Imagine")
			if len(got) != 2 {
				t.Fatalf("expected 2 tracks, got %d", len(got))
			}
			if got[0].ID != "32793500" || got[0].Genre != "Pop" || got[0].Year != 1971 || got[0].CoverURL != "https://img/1.jpg" {
				t.Errorf("unexpected first track %+v", got[0])
			}
			if got[1].ID != "42" || got[1].Genre != "Unknown" || got[1].Year != 0 {
				t.Errorf("unexpected second track %+v", got[1])
			}
		})

		t.Run("null track list", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeTracks(t, w, nil)
			}))
			defer server.Close()

			got := newTestAudioDB(server.URL).SearchExact(context.Background(), "Queen", "Nope")
			if got == nil || len(got) != 0 {
				t.Errorf("expected empty non-nil result, got %#v", got)
			}
		})

		t.Run("failures yield empty results", func(t *testing.T) {
			tc := []struct {
				name string
				svc  func() (*AudioDBService, func())
			}{
				{
					name: "server error",
					svc: func() (*AudioDBService, func()) {
						server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
							http.Error(w, "boom", http.StatusInternalServerError)
						}))
						return newTestAudioDB(server.URL), server.Close
					},
				},
				{
					name: "invalid json",
					svc: func() (*AudioDBService, func()) {
						server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
							fmt.Fprint(w, "{not json")
						}))
						return newTestAudioDB(server.URL), server.Close
					},
				},
				{
					name: "transport error",
					svc: func() (*AudioDBService, func()) {
						client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("dial failed"))}
						return NewAudioDBService(AudioDBOpts{HTTPClient: client, Logger: shared.NewLogger(&bytes.Buffer{})}), func() {}
					},
				},
				{
					name: "body read error",
					svc: func() (*AudioDBService, func()) {
						resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
						client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
						return NewAudioDBService(AudioDBOpts{HTTPClient: client, Logger: shared.NewLogger(&bytes.Buffer{})}), func() {}
					},
				},
			}

			for _, tt := range tc {
				t.Run(tt.name, func(t *testing.T) {
					svc, cleanup := tt.svc()
					defer cleanup()
					if got := svc.SearchExact(context.Background(), "Queen", "Bohemian Rhapsody"); len(got) != 0 {
						t.Errorf("expected empty result, got %v", got)
					}
				})
			}
		})
	})

	t.Run("FetchPopular", func(t *testing.T) {
		t.Run("two per artist in roster order capped at ten", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/track-top10.php" {
					t.Errorf("expected path /track-top10.php, got %s", r.URL.Path)
				}
				artist := r.URL.Query().Get("s")
				var tracks []map[string]any
				for i := range 3 {
					tracks = append(tracks, map[string]any{
						"idTrack": fmt.Sprintf("%s-%d", artist, i), "strTrack": fmt.Sprintf("Song %d", i),
						"strArtist": artist, "strGenre": "Rock", "intYearReleased": "1990",
					})
				}
				writeTracks(t, w, tracks)
			}))
			defer server.Close()

			got := newTestAudioDB(server.URL).FetchPopular(context.Background())
			if len(got) != 10 {
				t.Fatalf("expected 10 tracks, got %d", len(got))
			}
			for i, artist := range DefaultPopularArtists {
				for j := range 2 {
					track := got[i*2+j]
					if want := fmt.Sprintf("%s-%d", artist, j); track.ID != want {
						t.Errorf("position %d: expected %s, got %s", i*2+j, want, track.ID)
					}
				}
			}
		})

		t.Run("partial failures are tolerated", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				artist := r.URL.Query().Get("s")
				switch artist {
				case "Queen":
					writeTracks(t, w, []map[string]any{{"idTrack": "q1", "strArtist": artist}})
				case "U2":
					writeTracks(t, w, []map[string]any{{"idTrack": "u1", "strArtist": artist}, {"idTrack": "u2"}, {"idTrack": "u3"}})
				case "Coldplay":
					writeTracks(t, w, nil)
				default:
					http.Error(w, "down", http.StatusBadGateway)
				}
			}))
			defer server.Close()

			got := newTestAudioDB(server.URL).FetchPopular(context.Background())
			ids := make([]string, len(got))
			for i, tr := range got {
				ids[i] = tr.ID
			}
			want := []string{"q1", "u1", "u2"}
			if fmt.Sprint(ids) != fmt.Sprint(want) {
				t.Errorf("expected %v, got %v", want, ids)
			}
		})

		t.Run("falls back when every artist is empty", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeTracks(t, w, nil)
			}))
			defer server.Close()

			got := newTestAudioDB(server.URL).FetchPopular(context.Background())
			if len(got) != 10 {
				t.Fatalf("expected fallback catalog of 10, got %d", len(got))
			}
			for i, tr := range got {
				if want := fmt.Sprintf("mock-%d", i+1); tr.ID != want {
					t.Errorf("position %d: expected %s, got %s", i, want, tr.ID)
				}
			}
		})

		t.Run("falls back when the api is unreachable", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("dial failed"))}
			svc := NewAudioDBService(AudioDBOpts{HTTPClient: client, Logger: shared.NewLogger(&bytes.Buffer{})})

			got := svc.FetchPopular(context.Background())
			if len(got) != 10 || got[0].ID != "mock-1" {
				t.Errorf("expected fallback catalog, got %v", got)
			}
		})
	})
}

func TestParseYear(t *testing.T) {
	tc := []struct {
		in   string
		want int
	}{
		{"1975", 1975},
		{" 1975 ", 1975},
		{"1975-06-01", 1975},
		{"", 0},
		{"n/a", 0},
		{"0", 0},
	}
	for _, tt := range tc {
		if got := parseYear(tt.in); got != tt.want {
			t.Errorf("parseYear(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFallbackCatalog(t *testing.T) {
	a := FallbackCatalog()
	a[0].Title = "changed"

	b := FallbackCatalog()
	if b[0].Title != "Bohemian Rhapsody" {
		t.Error("FallbackCatalog should return a fresh copy")
	}
	for _, tr := range b {
		if tr.Genre == "" || tr.Year == 0 || tr.Description == "" {
			t.Errorf("incomplete fallback track %+v", tr)
		}
	}
}
