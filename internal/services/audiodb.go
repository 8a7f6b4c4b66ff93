// TheAudioDB [TrackSource] implementation
//
// Uses the free-tier v1 JSON API; the API key is part of the base URL path.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultAudioDBBaseURL = "https://www.theaudiodb.com/api/v1/json/123"
	defaultAudioDBTimeout = 10 * time.Second
	unknownGenre          = "Unknown"
)

// DefaultPopularArtists is the roster FetchPopular draws from, in output order.
var DefaultPopularArtists = []string{"Queen", "Iron Maiden", "Coldplay", "U2", "Metallica"}

// AudioDBTrack is one element of TheAudioDB's "track" array. Every field may be missing.
type AudioDBTrack struct {
	IDTrack          flexString `json:"idTrack"`
	StrTrack         string     `json:"strTrack"`
	StrArtist        string     `json:"strArtist"`
	StrGenre         string     `json:"strGenre"`
	IntYearReleased  flexString `json:"intYearReleased"`
	StrDescriptionEN string     `json:"strDescriptionEN"`
	StrTrackThumb    string     `json:"strTrackThumb"`
}

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// audioDBResponse covers both endpoints; "track" is null when nothing matches.
type audioDBResponse struct {
	Track []AudioDBTrack `json:"track"`
}

// AudioDBOpts configures an [AudioDBService]. Zero values select the defaults.
type AudioDBOpts struct {
	BaseURL      string
	Timeout      time.Duration
	RateLimit    float64 // requests per second; <= 0 means unlimited
	Artists      []string
	PerArtist    int
	PopularLimit int
	Fallback     []models.Track
	HTTPClient   *http.Client
	Logger       *log.Logger
}

// AudioDBService implements [TrackSource] against TheAudioDB.
type AudioDBService struct {
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *log.Logger
	artists      []string
	perArtist    int
	popularLimit int
	fallback     []models.Track
}

// NewAudioDBService creates a new TheAudioDB client.
func NewAudioDBService(opts AudioDBOpts) *AudioDBService {
	s := &AudioDBService{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
		artists:      opts.Artists,
		perArtist:    opts.PerArtist,
		popularLimit: opts.PopularLimit,
		fallback:     opts.Fallback,
		limiter:      rate.NewLimiter(rate.Inf, 1),
	}

	if s.baseURL == "" {
		s.baseURL = defaultAudioDBBaseURL
	}
	if s.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultAudioDBTimeout
		}
		s.httpClient = &http.Client{Timeout: timeout}
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	if len(s.artists) == 0 {
		s.artists = DefaultPopularArtists
	}
	if s.perArtist <= 0 {
		s.perArtist = 2
	}
	if s.popularLimit <= 0 {
		s.popularLimit = 10
	}
	if s.fallback == nil {
		s.fallback = FallbackCatalog()
	}
	return s
}

// NewAudioDBServiceFromConfig wires an [AudioDBService] from the [audiodb] config section.
func NewAudioDBServiceFromConfig(cfg shared.AudioDBConfig, logger *log.Logger) *AudioDBService {
	return NewAudioDBService(AudioDBOpts{
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.Timeout(),
		RateLimit:    cfg.RateLimit,
		Artists:      cfg.PopularArtists,
		PerArtist:    cfg.PerArtist,
		PopularLimit: cfg.PopularLimit,
		Logger:       logger,
	})
}

// SearchExact looks up a track by artist and title.
//
// Both values are trimmed; if either is blank no request is made.
func (s *AudioDBService) SearchExact(ctx context.Context, artist, title string) []models.Track {
	artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
	if artist == "" || title == "" {
		return []models.Track{}
	}

	q := url.Values{"s": {artist}, "t": {title}}
	items, err := s.doRequest(ctx, "/searchtrack.php?"+q.Encode())
	if err != nil {
		s.logger.Error("track search failed", "artist", artist, "title", title, "err", err)
		return []models.Track{}
	}
	return normalizeTracks(items)
}

// FetchPopular requests each roster artist's top tracks concurrently and keeps the first few per artist in roster order.
//
// Failed artists contribute nothing. When no artist contributes, the fallback catalog is returned.
func (s *AudioDBService) FetchPopular(ctx context.Context) []models.Track {
	perArtist := make([][]models.Track, len(s.artists))

	var wg sync.WaitGroup
	for i, artist := range s.artists {
		wg.Add(1)
		go func() {
			defer wg.Done()
			perArtist[i] = s.topTracks(ctx, artist)
		}()
	}
	wg.Wait()

	tracks := make([]models.Track, 0, s.popularLimit)
	for _, group := range perArtist {
		if len(group) > s.perArtist {
			group = group[:s.perArtist]
		}
		tracks = append(tracks, group...)
	}

	if len(tracks) == 0 {
		s.logger.Warn("no popular tracks available, using fallback catalog")
		return cloneTracks(s.fallback)
	}
	if len(tracks) > s.popularLimit {
		tracks = tracks[:s.popularLimit]
	}
	return tracks
}

func (s *AudioDBService) topTracks(ctx context.Context, artist string) []models.Track {
	q := url.Values{"s": {artist}}
	items, err := s.doRequest(ctx, "/track-top10.php?"+q.Encode())
	if err != nil {
		s.logger.Error("top tracks request failed", "artist", artist, "err", err)
		return nil
	}
	return normalizeTracks(items)
}

func (s *AudioDBService) doRequest(ctx context.Context, endpoint string) ([]AudioDBTrack, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	apiURL := s.baseURL + endpoint
	s.logger.Debug("audiodb request", "method", http.MethodGet, "url", apiURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var body audioDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return body.Track, nil
}

// NormalizeTrack converts an API item into a [models.Track].
func NormalizeTrack(item AudioDBTrack) models.Track {
	genre := strings.TrimSpace(item.StrGenre)
	if genre == "" {
		genre = unknownGenre
	}
	return models.Track{
		ID:          string(item.IDTrack),
		Title:       item.StrTrack,
		Artist:      item.StrArtist,
		Genre:       genre,
		Year:        parseYear(string(item.IntYearReleased)),
		CoverURL:    item.StrTrackThumb,
		Description: item.StrDescriptionEN,
	}
}

func normalizeTracks(items []AudioDBTrack) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, NormalizeTrack(item))
	}
	return tracks
}

// parseYear reads the leading decimal digits of s ("1975", "1975-06", " 1975 ") and returns 0 when there are none.
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	year, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return year
}

func cloneTracks(tracks []models.Track) []models.Track {
	out := make([]models.Track, len(tracks))
	copy(out, tracks)
	return out
}
