// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/ytwatch/internal/models"
)

// MockSource is a test double for services.Source.
//
// Items are served per collection id; Errors take precedence. Calls are counted.
type MockSource struct {
	mu       sync.Mutex
	Titles   map[string]string
	Items    map[string][]models.Item
	Errors   map[string]error
	Panics   map[string]bool
	Fetches  map[string]int
	Validate int

	// OnFetch, when set, runs at the start of every FetchItems call outside the lock.
	OnFetch func(ctx context.Context, id string)
}

func NewMockSource() *MockSource {
	return &MockSource{
		Titles:  map[string]string{},
		Items:   map[string][]models.Item{},
		Errors:  map[string]error{},
		Panics:  map[string]bool{},
		Fetches: map[string]int{},
	}
}

// SetItems replaces the upstream items of a collection, assigning positions.
func (m *MockSource) SetItems(id string, items ...models.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Item, len(items))
	for i, it := range items {
		it.CollectionID = id
		it.Position = i
		if it.URL == "" {
			it.URL = models.WatchURL(it.ID)
		}
		out[i] = it
	}
	m.Items[id] = out
}

// SetError makes every call for id fail with err (nil clears it).
func (m *MockSource) SetError(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.Errors, id)
		return
	}
	m.Errors[id] = err
}

// FetchCount returns how many times id was fetched.
func (m *MockSource) FetchCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Fetches[id]
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) ValidateCollection(ctx context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Validate++
	if err := m.Errors[id]; err != nil {
		return "", err
	}
	title, ok := m.Titles[id]
	if !ok {
		return "", fmt.Errorf("mock: unknown playlist %s", id)
	}
	return title, nil
}

func (m *MockSource) FetchItems(ctx context.Context, id string, maxResults int) ([]models.Item, error) {
	m.mu.Lock()
	m.Fetches[id]++
	panics := m.Panics[id]
	err := m.Errors[id]
	items := append([]models.Item(nil), m.Items[id]...)
	onFetch := m.OnFetch
	m.mu.Unlock()

	if onFetch != nil {
		onFetch(ctx, id)
	}

	if panics {
		panic("mock source panic for " + id)
	}
	if err != nil {
		return nil, err
	}
	if maxResults > 0 && len(items) > maxResults {
		items = items[:maxResults]
	}
	return items, nil
}

// SentMessage is one message captured by [MockSender].
type SentMessage struct {
	SubscriberID int64
	Text         string
}

// MockSender records outbound messages. FailAfter >= 0 makes every send after that many successes fail.
type MockSender struct {
	mu        sync.Mutex
	Sent      []SentMessage
	FailAfter int
	Err       error
}

func NewMockSender() *MockSender {
	return &MockSender{FailAfter: -1}
}

// NewFailingSender fails every send.
func NewFailingSender() *MockSender {
	return &MockSender{FailAfter: 0, Err: errors.New("telegram unavailable")}
}

func (m *MockSender) SendText(ctx context.Context, subscriberID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAfter >= 0 && len(m.Sent) >= m.FailAfter {
		if m.Err != nil {
			return m.Err
		}
		return errors.New("send failed")
	}
	m.Sent = append(m.Sent, SentMessage{SubscriberID: subscriberID, Text: text})
	return nil
}

// Messages returns a copy of what was sent.
func (m *MockSender) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.Sent...)
}

// Reset clears recorded messages.
func (m *MockSender) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = nil
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
