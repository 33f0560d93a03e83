package service

import (
	"context"
	"sync"

	"matchbot/internal/models"
	"matchbot/pkg/chat"
)

type postedMessage struct {
	ChannelID string
	Text      string
}

type updatedMessage struct {
	Ref  *chat.MessageRef
	Text string
}

type mockChat struct {
	mu sync.Mutex

	postErr   error
	updateErr error
	promptErr error

	posted  []postedMessage
	updated []updatedMessage
	prompts []*chat.DecisionPrompt
}

func (m *mockChat) PostMessage(ctx context.Context, channelID, text string) (*chat.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postErr != nil {
		return nil, m.postErr
	}
	m.posted = append(m.posted, postedMessage{ChannelID: channelID, Text: text})
	return &chat.MessageRef{ChannelID: channelID, Timestamp: "1700000000.000100"}, nil
}

func (m *mockChat) UpdateMessage(ctx context.Context, ref *chat.MessageRef, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, updatedMessage{Ref: ref, Text: text})
	return nil
}

func (m *mockChat) UpdateWithDecisionPrompt(ctx context.Context, ref *chat.MessageRef, prompt *chat.DecisionPrompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.promptErr != nil {
		return m.promptErr
	}
	m.prompts = append(m.prompts, prompt)
	return nil
}

func (m *mockChat) lastPosted() postedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posted[len(m.posted)-1]
}

type mockRelay struct {
	urls []string
	got  []models.Attachment
}

func (m *mockRelay) RelayAll(ctx context.Context, attachments []models.Attachment) []string {
	m.got = attachments
	return m.urls
}

type mockGenerator struct {
	post *models.GeneratedPost
	err  error

	gotText string
	gotURLs []string
}

func (m *mockGenerator) Generate(ctx context.Context, userText string, assetURLs []string) (*models.GeneratedPost, error) {
	m.gotText = userText
	m.gotURLs = assetURLs
	if m.err != nil {
		return nil, m.err
	}
	return m.post, nil
}

type mockBridge struct {
	result *models.PublishResult
	err    error

	published []*models.PendingPost
}

func (m *mockBridge) Publish(ctx context.Context, post *models.PendingPost) (*models.PublishResult, error) {
	m.published = append(m.published, post)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockHistory struct {
	entries []*models.HistoryEntry
}

func (m *mockHistory) Record(ctx context.Context, entry *models.HistoryEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}
