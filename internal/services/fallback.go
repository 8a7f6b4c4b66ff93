package services

import "github.com/desertthunder/spotifsc/internal/models"

// FallbackCatalog returns the static popular-track list used when TheAudioDB yields nothing.
//
// Callers get a fresh slice each time.
func FallbackCatalog() []models.Track {
	return []models.Track{
		{ID: "mock-1", Title: "Bohemian Rhapsody", Artist: "Queen", Genre: "Rock", Year: 1975,
			Description: "One of the most iconic rock songs of all time, with a unique operatic structure."},
		{ID: "mock-2", Title: "Stairway to Heaven", Artist: "Led Zeppelin", Genre: "Rock", Year: 1971,
			Description: "Considered one of the greatest rock songs ever written, with an epic progression."},
		{ID: "mock-3", Title: "Imagine", Artist: "John Lennon", Genre: "Pop", Year: 1971,
			Description: "A timeless song about peace and world unity with a powerful message."},
		{ID: "mock-4", Title: "Hotel California", Artist: "Eagles", Genre: "Rock", Year: 1976,
			Description: "An American rock classic with mysterious lyrics and a memorable guitar solo."},
		{ID: "mock-5", Title: "Billie Jean", Artist: "Michael Jackson", Genre: "Pop", Year: 1983,
			Description: "One of the King of Pop's biggest hits, with an infectious beat and iconic dance."},
		{ID: "mock-6", Title: "Like a Rolling Stone", Artist: "Bob Dylan", Genre: "Folk Rock", Year: 1965,
			Description: "Considered one of the most influential songs in rock history."},
		{ID: "mock-7", Title: "Purple Haze", Artist: "Jimi Hendrix", Genre: "Rock", Year: 1967,
			Description: "A landmark in the history of the electric guitar and psychedelic rock."},
		{ID: "mock-8", Title: "Hey Jude", Artist: "The Beatles", Genre: "Pop Rock", Year: 1968,
			Description: "One of the Beatles' most beloved songs, with an epic sing-along ending."},
		{ID: "mock-9", Title: "Smells Like Teen Spirit", Artist: "Nirvana", Genre: "Grunge", Year: 1991,
			Description: "The anthem of a generation that defined the grunge movement of the 90s."},
		{ID: "mock-10", Title: "What's Going On", Artist: "Marvin Gaye", Genre: "Soul", Year: 1971,
			Description: "A soul masterpiece with a deep social message."},
	}
}
