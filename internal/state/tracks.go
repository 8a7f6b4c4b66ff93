package state

import (
	"context"

	"github.com/desertthunder/spotifsc/internal/models"
)

// FetchPopularTracks replaces the popular set with the track source's selection.
func (s *Store) FetchPopularTracks(ctx context.Context) *Task[[]models.Track] {
	s.mu.Lock()
	s.gen.popular++
	gen := s.gen.popular
	s.apply(PopularPending{})
	s.mu.Unlock()

	work := func(ctx context.Context) ([]models.Track, error) {
		return s.source.FetchPopular(ctx), nil
	}

	settle := func(tracks []models.Track, err error) bool {
		if gen != s.gen.popular {
			return false
		}
		if err != nil {
			s.apply(PopularFailed{Message: MsgFetchPopular})
			return true
		}
		s.apply(PopularLoaded{Tracks: tracks})
		return true
	}

	return spawn(s, ctx, "fetch popular tracks", work, settle)
}

// SearchTrack clears the search results and replaces them with an exact artist/title lookup.
//
// Only the most recent search can settle; earlier ones still in flight are discarded.
func (s *Store) SearchTrack(ctx context.Context, artist, title string) *Task[[]models.Track] {
	s.mu.Lock()
	s.gen.search++
	gen := s.gen.search
	s.apply(SearchPending{})
	s.mu.Unlock()

	work := func(ctx context.Context) ([]models.Track, error) {
		return s.source.SearchExact(ctx, artist, title), nil
	}

	settle := func(tracks []models.Track, err error) bool {
		if gen != s.gen.search {
			return false
		}
		if err != nil {
			s.apply(SearchFailed{Message: MsgFetchTrack})
			return true
		}
		s.apply(SearchLoaded{Tracks: tracks})
		return true
	}

	return spawn(s, ctx, "search track", work, settle)
}

// ClearSearchResults empties the search results and discards any search still in flight.
func (s *Store) ClearSearchResults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen.search++
	s.apply(SearchCleared{})
}

// SetCurrentTrack selects t.
func (s *Store) SetCurrentTrack(t models.Track) {
	s.dispatch(CurrentTrackSet{Track: t})
}

func (s *Store) ClearCurrentTrack() {
	s.dispatch(CurrentTrackCleared{})
}

// ClearTracksError clears the track error.
func (s *Store) ClearTracksError() {
	s.dispatch(TracksErrorCleared{})
}
