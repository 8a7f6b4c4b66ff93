package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/spotifsc/internal/formatter"
	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/shared"
	"golang.org/x/time/rate"
)

const manifestName = "export_manifest.json"

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: json)
	OutputDir  string           // Base output directory (default: spotifsc_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 5, max: 10)
	RateLimit  float64          // Playlists dispatched per second (default: 5)
}

// PlaylistExportResult is the outcome for one playlist.
type PlaylistExportResult struct {
	PlaylistID   string
	PlaylistName string
	Success      bool
	Files        []string
	Error        error
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalPlaylists    int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []PlaylistExportResult
}

// ExportManifest is the JSON document written next to the exported files.
type ExportManifest struct {
	ExportedAt     time.Time       `json:"exportedAt"`
	Format         string          `json:"format"`
	TotalPlaylists int             `json:"totalPlaylists"`
	Successful     int             `json:"successful"`
	Failed         int             `json:"failed"`
	Playlists      []ManifestEntry `json:"playlists"`
}

// ManifestEntry is one playlist in an [ExportManifest].
type ManifestEntry struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Files []string `json:"files"`
	Error string   `json:"error,omitempty"`
}

type exportJob struct {
	playlist models.Playlist
	path     string
}

// BulkExport exports multiple playlists concurrently with rate limiting and progress tracking.
//
// Playlists that cannot be found or written are reported as failures in the result. The returned error is only set
// when the output directory or the manifest cannot be written.
func (e *ExportEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	lookup PlaylistLookup,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if lookup == nil {
		return nil, fmt.Errorf("%w: playlist lookup not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotifsc_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(ids))
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts.Format)
	}

	go func() {
		defer close(jobs)

		e.sendProgress(prog, resolvingUpdate(len(ids)))
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			p, err := lookup.Find(ctx, id)
			if err != nil {
				results <- PlaylistExportResult{
					PlaylistID:   id,
					PlaylistName: fmt.Sprintf("Unknown (%s)", id),
					Error:        err,
				}
				continue
			}

			jobs <- exportJob{
				playlist: p,
				path:     filepath.Join(opts.OutputDir, formatter.DefaultPath(p, opts.Format)),
			}
			e.sendProgress(prog, exportingPlaylistUpdate(i+1, len(ids), p.Name))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res))
		} else {
			result.FailedExports++
			e.logger.Warn("playlist export failed", "playlist", res.PlaylistID, "error", res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	e.sendProgress(prog, manifestUpdate(manifestPath))
	if err := writeManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that exports playlists from the jobs channel.
func (e *ExportEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- PlaylistExportResult,
	format formatter.Format,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- e.exportSinglePlaylist(job, format)
	}
}

func (e *ExportEngine) exportSinglePlaylist(j exportJob, format formatter.Format) PlaylistExportResult {
	result := PlaylistExportResult{
		PlaylistID:   j.playlist.ID,
		PlaylistName: j.playlist.Name,
		Files:        []string{},
	}

	written, err := formatter.WriteExport(j.playlist, format, formatter.WriteOpts{
		Path:   j.path,
		Client: e.client,
		Logger: e.logger,
	})
	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", format, err)
		return result
	}

	result.Files = written.Files
	result.Success = true
	return result
}

func writeManifest(result *BulkExportResult, format formatter.Format, path string) error {
	manifest := ExportManifest{
		ExportedAt:     time.Now().UTC(),
		Format:         string(format),
		TotalPlaylists: result.TotalPlaylists,
		Successful:     result.SuccessfulExports,
		Failed:         result.FailedExports,
		Playlists:      make([]ManifestEntry, 0, len(result.Results)),
	}
	for _, res := range result.Results {
		entry := ManifestEntry{ID: res.PlaylistID, Name: res.PlaylistName, Files: res.Files}
		if entry.Files == nil {
			entry.Files = []string{}
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		manifest.Playlists = append(manifest.Playlists, entry)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
