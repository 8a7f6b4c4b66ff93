// package formatter exports playlists to CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// Formats lists the supported formats in help order.
var Formats = []Format{FormatCSV, FormatMarkdown, FormatText, FormatJSON}

// ParseFormat accepts a format name or a common alias ("md", "txt").
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, name)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension is the file extension used for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return string(f)
	}
}

// Export renders p in format f.
func Export(p models.Playlist, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(p)
	case FormatMarkdown:
		return ExportToMarkdown(p, "")
	case FormatText:
		return ExportToText(p)
	case FormatJSON:
		return ExportToJSON(p)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
}

// ExportToCSV writes one row per track with columns: ID, Title, Artist, Genre, Year
func ExportToCSV(p models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Genre", "Year"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range p.Tracks {
		record := []string{track.ID, track.Title, track.Artist, track.Genre, yearString(track.Year)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders p as a Markdown document with an optional cover image
func ExportToMarkdown(p models.Playlist, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)
	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(p.Tracks))
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(&buf, "**Created**: %s\n", p.CreatedAt.Format(time.DateOnly))
	}
	if !p.ModifiedAt.IsZero() {
		fmt.Fprintf(&buf, "**Modified**: %s\n", p.ModifiedAt.Format(time.DateOnly))
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, track := range p.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s%s\n", i+1, track.Artist, track.Title, details(track))
	}
	return buf.Bytes(), nil
}

// ExportToText renders p as a numbered list
func ExportToText(p models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(p.Tracks))

	for i, track := range p.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Title)
	}
	return buf.Bytes(), nil
}

// ExportToJSON renders p, tracks included, as indented JSON.
func ExportToJSON(p models.Playlist) ([]byte, error) {
	if p.Tracks == nil {
		p.Tracks = []models.Track{}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal playlist: %w", err)
	}
	return append(data, '\n'), nil
}

// details is " (Genre, Year)" with unknown parts left out.
func details(t models.Track) string {
	var parts []string
	if t.Genre != "" && t.Genre != "Unknown" {
		parts = append(parts, t.Genre)
	}
	if t.Year > 0 {
		parts = append(parts, strconv.Itoa(t.Year))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func yearString(year int) string {
	if year <= 0 {
		return ""
	}
	return strconv.Itoa(year)
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrMissingArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: failed to download image: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return imageData, nil
}

// CoverURL is the artwork of the first track that has one.
func CoverURL(p models.Playlist) string {
	for _, t := range p.Tracks {
		if t.CoverURL != "" {
			return t.CoverURL
		}
	}
	return ""
}

// WriteOpts controls [WriteExport].
type WriteOpts struct {
	// Path is the output file, or the output directory for Markdown. Defaults to one derived from the playlist id.
	Path string
	// Client downloads the Markdown cover image. A nil client skips the download.
	Client *http.Client
	Logger *log.Logger
}

// ExportResult lists the files written by [WriteExport].
type ExportResult struct {
	Files      []string
	CoverImage string
}

// DefaultPath is where [WriteExport] puts p when no path is given, relative to the working directory.
func DefaultPath(p models.Playlist, f Format) string {
	if f == FormatMarkdown {
		return p.ID
	}
	return fmt.Sprintf("%s_tracks.%s", p.ID, f.Extension())
}

// WriteExport writes p to disk in format f.
//
// Markdown exports go to a directory holding README.md and, when a cover could be downloaded, cover.jpg.
// Every other format is written to a single file, {id}_tracks.{ext} by default.
func WriteExport(p models.Playlist, f Format, opts WriteOpts) (*ExportResult, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if f == FormatMarkdown {
		return writeMarkdownExport(p, opts)
	}

	path := opts.Path
	if path == "" {
		path = DefaultPath(p, f)
	}

	data, err := Export(p, f)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return &ExportResult{Files: []string{path}}, nil
}

func writeMarkdownExport(p models.Playlist, opts WriteOpts) (*ExportResult, error) {
	dir := opts.Path
	if dir == "" {
		dir = DefaultPath(p, FormatMarkdown)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &ExportResult{Files: []string{}}

	var coverFilename string
	if url := CoverURL(p); url != "" && opts.Client != nil {
		imageData, err := DownloadImage(opts.Client, url)
		if err != nil {
			opts.Logger.Warn("failed to download cover image", "url", url, "err", err)
		} else {
			coverPath := filepath.Join(dir, "cover.jpg")
			if err := os.WriteFile(coverPath, imageData, 0644); err != nil {
				opts.Logger.Warn("failed to save cover image", "err", err)
			} else {
				coverFilename = "cover.jpg"
				result.CoverImage = coverPath
				result.Files = append(result.Files, coverPath)
			}
		}
	}

	mdData, err := ExportToMarkdown(p, coverFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(dir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, nil
}
