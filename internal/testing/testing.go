// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/shared"
)

// MockTrackSource is a test double for [services.TrackSource].
//
// Results are keyed by title. A gate registered for a title (or PopularGate for FetchPopular) blocks the call until it is closed,
// which lets tests control the order in which concurrent requests finish.
type MockTrackSource struct {
	mu          sync.Mutex
	Popular     []models.Track
	Results     map[string][]models.Track
	Gates       map[string]chan struct{}
	PopularGate chan struct{}
	PanicOn     string
	searches    int
	populars    int
}

func (m *MockTrackSource) SearchExact(ctx context.Context, artist, title string) []models.Track {
	m.mu.Lock()
	m.searches++
	gate, res, panicking := m.Gates[title], m.Results[title], m.PanicOn == title
	m.mu.Unlock()

	wait(ctx, gate)
	if panicking {
		panic("mock track source failure")
	}
	return res
}

func (m *MockTrackSource) FetchPopular(ctx context.Context) []models.Track {
	m.mu.Lock()
	m.populars++
	gate, res := m.PopularGate, m.Popular
	m.mu.Unlock()

	wait(ctx, gate)
	return res
}

// SetGate registers a gate for title and returns the function that opens it.
func (m *MockTrackSource) SetGate(title string) func() {
	ch := make(chan struct{})
	m.mu.Lock()
	if m.Gates == nil {
		m.Gates = make(map[string]chan struct{})
	}
	m.Gates[title] = ch
	m.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Calls returns the number of SearchExact and FetchPopular calls so far.
func (m *MockTrackSource) Calls() (searches, populars int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searches, m.populars
}

func wait(ctx context.Context, gate chan struct{}) {
	if gate == nil {
		return
	}
	select {
	case <-gate:
	case <-ctx.Done():
	}
}

// MockCredentialChecker accepts exactly the pairs in Accounts. Gate, when set, blocks each check until closed.
type MockCredentialChecker struct {
	Accounts map[string]string
	Gate     chan struct{}
}

func (m *MockCredentialChecker) Check(ctx context.Context, email, password string) error {
	wait(ctx, m.Gate)
	if want, ok := m.Accounts[shared.NormalizeEmail(email)]; ok && want == password {
		return nil
	}
	return shared.ErrInvalidCredentials
}

// FailingKV fails every operation, standing in for a broken or full storage backend.
type FailingKV struct{}

var errStorage = errors.New("storage unavailable")

func (FailingKV) Get(string) (string, bool, error) { return "", false, errStorage }
func (FailingKV) Set(string, string) error         { return errStorage }
func (FailingKV) Remove(...string) error           { return errStorage }
func (FailingKV) Update(string, func(string, bool) (string, error)) error {
	return errStorage
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
