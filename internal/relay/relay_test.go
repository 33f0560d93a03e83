package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "matchbot/internal/errors"
	"matchbot/internal/models"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDownloader struct {
	mu       sync.Mutex
	delays   map[string]time.Duration
	failures map[string]bool
	calls    []string
}

func (m *mockDownloader) DownloadFile(ctx context.Context, fileURL string) ([]byte, string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, fileURL)
	delay := m.delays[fileURL]
	fail := m.failures[fileURL]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		return nil, "", errors.New("download rejected")
	}
	return []byte("bytes-of-" + fileURL), "image/jpeg", nil
}

type mockObjectStore struct {
	mu     sync.Mutex
	failOn map[string]bool
	puts   []string
}

func (m *mockObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name := range m.failOn {
		if strings.Contains(key, name) {
			return "", errors.New("storage unavailable")
		}
	}
	m.puts = append(m.puts, key)
	return "https://cdn.example.com/" + key, nil
}

func newTestRelay(dl *mockDownloader, st *mockObjectStore) *Relay {
	logger, _ := test.NewNullLogger()
	return New(dl, st, "blog-images", logger)
}

func imageAttachment(n int) models.Attachment {
	return models.Attachment{
		Name:     fmt.Sprintf("photo_%d.jpg", n),
		MimeType: "image/jpeg",
		URL:      fmt.Sprintf("https://chat.example.com/files/%d", n),
	}
}

func TestRelayOne(t *testing.T) {
	dl := &mockDownloader{}
	st := &mockObjectStore{}
	r := newTestRelay(dl, st)

	url, err := r.RelayOne(context.Background(), imageAttachment(1))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/blog-images/"))
	assert.True(t, strings.HasSuffix(url, "_photo_1.jpg"))
}

func TestRelayOneDownloadFailure(t *testing.T) {
	dl := &mockDownloader{failures: map[string]bool{"https://chat.example.com/files/1": true}}
	st := &mockObjectStore{}
	r := newTestRelay(dl, st)

	_, err := r.RelayOne(context.Background(), imageAttachment(1))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeFetch, apperrors.GetCode(err))
	assert.Empty(t, st.puts)
}

func TestRelayOneFreshKeys(t *testing.T) {
	// Two uploads of the same file must not collide.
	dl := &mockDownloader{}
	st := &mockObjectStore{}
	logger, _ := test.NewNullLogger()
	r := New(dl, st, "blog-images", logger)

	base := time.Now()
	times := []time.Time{base, base.Add(5 * time.Millisecond)}
	r.now = func() time.Time {
		next := times[0]
		if len(times) > 1 {
			times = times[1:]
		}
		return next
	}

	url1, err := r.RelayOne(context.Background(), imageAttachment(1))
	require.NoError(t, err)
	url2, err := r.RelayOne(context.Background(), imageAttachment(1))
	require.NoError(t, err)
	assert.NotEqual(t, url1, url2)
}

func TestRelayAllPreservesSourceOrder(t *testing.T) {
	// Completion order is deliberately scrambled: the first attachment
	// finishes last. Result order must still match source order.
	dl := &mockDownloader{delays: map[string]time.Duration{
		"https://chat.example.com/files/1": 60 * time.Millisecond,
		"https://chat.example.com/files/2": 20 * time.Millisecond,
		"https://chat.example.com/files/3": 1 * time.Millisecond,
	}}
	st := &mockObjectStore{}
	r := newTestRelay(dl, st)

	atts := []models.Attachment{imageAttachment(1), imageAttachment(2), imageAttachment(3)}
	urls := r.RelayAll(context.Background(), atts)

	require.Len(t, urls, 3)
	assert.Contains(t, urls[0], "photo_1.jpg")
	assert.Contains(t, urls[1], "photo_2.jpg")
	assert.Contains(t, urls[2], "photo_3.jpg")
}

func TestRelayAllEmpty(t *testing.T) {
	r := newTestRelay(&mockDownloader{}, &mockObjectStore{})
	urls := r.RelayAll(context.Background(), nil)
	assert.Empty(t, urls)
}

func TestRelayAllSkipsNonImages(t *testing.T) {
	dl := &mockDownloader{}
	st := &mockObjectStore{}
	r := newTestRelay(dl, st)

	atts := []models.Attachment{
		imageAttachment(1),
		{Name: "lineup.pdf", MimeType: "application/pdf", URL: "https://chat.example.com/files/9"},
		imageAttachment(2),
	}
	urls := r.RelayAll(context.Background(), atts)

	require.Len(t, urls, 2)
	assert.Contains(t, urls[0], "photo_1.jpg")
	assert.Contains(t, urls[1], "photo_2.jpg")
	assert.NotContains(t, dl.calls, "https://chat.example.com/files/9")
}

func TestRelayAllDropsFailedAssets(t *testing.T) {
	// A failed upload drops that asset but keeps the rest.
	dl := &mockDownloader{}
	st := &mockObjectStore{failOn: map[string]bool{"photo_2.jpg": true}}
	r := newTestRelay(dl, st)

	atts := []models.Attachment{imageAttachment(1), imageAttachment(2), imageAttachment(3)}
	urls := r.RelayAll(context.Background(), atts)

	require.Len(t, urls, 2)
	assert.Contains(t, urls[0], "photo_1.jpg")
	assert.Contains(t, urls[1], "photo_3.jpg")
}
