package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "matchbot/internal/errors"
	"matchbot/internal/models"

	"github.com/sirupsen/logrus"
)

// Downloader fetches an attachment from the chat platform.
type Downloader interface {
	DownloadFile(ctx context.Context, fileURL string) ([]byte, string, error)
}

// ObjectStore writes one object to durable storage and returns its URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Relay copies chat attachments into durable object storage.
type Relay struct {
	chat      Downloader
	store     ObjectStore
	keyPrefix string
	logger    *logrus.Logger
	// now is swappable for deterministic keys in tests
	now func() time.Time
}

// New creates an asset relay.
func New(chat Downloader, store ObjectStore, keyPrefix string, logger *logrus.Logger) *Relay {
	return &Relay{
		chat:      chat,
		store:     store,
		keyPrefix: keyPrefix,
		logger:    logger,
		now:       time.Now,
	}
}

// RelayOne copies a single attachment into object storage under a fresh
// time-derived key and returns the durable URL.
func (r *Relay) RelayOne(ctx context.Context, att models.Attachment) (string, error) {
	data, contentType, err := r.chat.DownloadFile(ctx, att.URL)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeFetch, "failed to download attachment").
			WithContext("file", att.Name)
	}
	if contentType == "" {
		contentType = att.MimeType
	}

	key := fmt.Sprintf("%s/%d_%s", r.keyPrefix, r.now().UnixMilli(), att.Name)
	url, err := r.store.Put(ctx, key, data, contentType)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeFetch, "failed to upload attachment").
			WithContext("file", att.Name)
	}
	return url, nil
}

// RelayAll copies every image attachment concurrently. The returned URLs are
// in source-attachment order regardless of upload completion order.
// Non-image attachments are skipped; attachments that fail to relay are
// dropped from the result so a post can still carry partial assets.
func (r *Relay) RelayAll(ctx context.Context, attachments []models.Attachment) []string {
	results := make([]string, len(attachments))
	var wg sync.WaitGroup

	for i, att := range attachments {
		if !att.IsImage() {
			r.logger.WithFields(logrus.Fields{
				"file":     att.Name,
				"mimetype": att.MimeType,
			}).Debug("Skipping non-image attachment")
			continue
		}

		wg.Add(1)
		go func(i int, att models.Attachment) {
			defer wg.Done()
			url, err := r.RelayOne(ctx, att)
			if err != nil {
				r.logger.WithError(err).WithField("file", att.Name).Warn("Attachment relay failed, dropping asset")
				return
			}
			results[i] = url
		}(i, att)
	}
	wg.Wait()

	urls := make([]string, 0, len(attachments))
	for _, url := range results {
		if url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}
