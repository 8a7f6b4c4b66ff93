package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/shared"
	th "github.com/desertthunder/spotifsc/internal/testing"
)

func samplePlaylist() models.Playlist {
	return models.Playlist{
		ID:         "pl_123",
		Name:       "Road Trip",
		OwnerID:    "usr_2p",
		CreatedAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		ModifiedAt: time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
		Tracks: []models.Track{
			{ID: "t1", Title: "Imagine", Artist: "John Lennon", Genre: "Rock", Year: 1971},
			{ID: "t2", Title: "Hey, Jude", Artist: "The Beatles", Genre: "Unknown", Year: 0},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in   string
		want Format
	}{
		{"csv", FormatCSV},
		{"MD", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{" txt ", FormatText},
		{"json", FormatJSON},
	}
	for _, tt := range tc {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestExporters(t *testing.T) {
	p := samplePlaylist()

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(p)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
		}
		if lines[0] != "ID,Title,Artist,Genre,Year" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if lines[1] != "t1,Imagine,John Lennon,Rock,1971" {
			t.Errorf("unexpected row %q", lines[1])
		}
		if lines[2] != `t2,"Hey, Jude",The Beatles,Unknown,` {
			t.Errorf("expected quoted title and empty year, got %q", lines[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(p, "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			output := string(data)

			for _, want := range []string{
				"# Road Trip",
				"**Tracks**: 2",
				"**Created**: 2025-03-01",
				"**Modified**: 2025-03-02",
				"## Tracks",
				"1. John Lennon - Imagine (Rock, 1971)\n",
				"2. The Beatles - Hey, Jude\n",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got:\n%s", want, output)
				}
			}
			if strings.Contains(output, "![Cover]") {
				t.Error("Markdown should not reference a cover")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(p, "cover.jpg")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			if !strings.Contains(string(data), "![Cover](cover.jpg)") {
				t.Error("Markdown missing cover image")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(p)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		want := "Playlist: Road Trip\nTracks: 2\n\n1. John Lennon - Imagine\n2. The Beatles - Hey, Jude\n"
		if string(data) != want {
			t.Errorf("got %q, want %q", data, want)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(models.Playlist{ID: "empty", Name: "Empty"})
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		if !bytes.Contains(data, []byte(`"tracks": []`)) {
			t.Errorf("expected an empty tracks array, got %s", data)
		}

		data, err = ExportToJSON(p)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		var decoded models.Playlist
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.OwnerID != p.OwnerID || len(decoded.Tracks) != 2 {
			t.Errorf("unexpected decoded playlist %+v", decoded)
		}
	})

	t.Run("Export dispatches on format", func(t *testing.T) {
		for _, f := range Formats {
			if _, err := Export(p, f); err != nil {
				t.Errorf("Export(%s) failed: %v", f, err)
			}
		}
		if _, err := Export(p, Format("xml")); err == nil {
			t.Error("expected an error for an unknown format")
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg-bytes"))
		}))
		defer server.Close()

		data, err := DownloadImage(server.Client(), server.URL)
		if err != nil || string(data) != "jpeg-bytes" {
			t.Errorf("DownloadImage = %q, %v", data, err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		if _, err := DownloadImage(server.Client(), server.URL); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(nil, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("BodyReadFailure", func(t *testing.T) {
		client := &http.Client{Transport: th.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &th.FCloser{},
		}, nil)}

		if _, err := DownloadImage(client, "http://example.invalid/cover.jpg"); err == nil {
			t.Error("expected an error when the body cannot be read")
		}
	})
}

func TestWriteExport(t *testing.T) {
	p := samplePlaylist()

	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")

		result, err := WriteExport(p, FormatCSV, WriteOpts{Path: path})
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if len(result.Files) != 1 || result.Files[0] != path {
			t.Errorf("unexpected files %v", result.Files)
		}
		if !strings.HasPrefix(th.MustReadFile(t, path), "ID,Title") {
			t.Error("CSV file missing header")
		}
	})

	t.Run("WithDefaultPath", func(t *testing.T) {
		t.Chdir(t.TempDir())

		result, err := WriteExport(p, FormatText, WriteOpts{})
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if result.Files[0] != "pl_123_tracks.txt" {
			t.Errorf("unexpected default path %q", result.Files[0])
		}
		th.AssertFileExists(t, "pl_123_tracks.txt")
	})

	t.Run("Markdown downloads the first cover", func(t *testing.T) {
		var requested string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requested = r.URL.Path
			w.Write([]byte("jpeg-bytes"))
		}))
		defer server.Close()

		withCover := p.Clone()
		withCover.Tracks[1].CoverURL = server.URL + "/jude.jpg"
		dir := filepath.Join(t.TempDir(), "export")

		result, err := WriteExport(withCover, FormatMarkdown, WriteOpts{Path: dir, Client: server.Client()})
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if requested != "/jude.jpg" {
			t.Errorf("expected cover request, got %q", requested)
		}
		if result.CoverImage != filepath.Join(dir, "cover.jpg") || len(result.Files) != 2 {
			t.Errorf("unexpected result %+v", result)
		}
		if !strings.Contains(th.MustReadFile(t, filepath.Join(dir, "README.md")), "![Cover](cover.jpg)") {
			t.Error("README missing cover reference")
		}
	})

	t.Run("Markdown survives a failed download", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		withCover := p.Clone()
		withCover.Tracks[0].CoverURL = server.URL + "/missing.jpg"
		dir := filepath.Join(t.TempDir(), "export")

		result, err := WriteExport(withCover, FormatMarkdown, WriteOpts{
			Path:   dir,
			Client: server.Client(),
			Logger: shared.NewLogger(&bytes.Buffer{}),
		})
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if result.CoverImage != "" || len(result.Files) != 1 {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.json")
		if _, err := WriteExport(p, FormatJSON, WriteOpts{Path: path}); err == nil {
			t.Error("expected an error for a missing directory")
		}
	})
}
