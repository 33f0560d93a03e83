package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"matchbot/internal/retry"
)

// Client is the narrow contract the bot needs from the chat platform.
type Client interface {
	PostMessage(ctx context.Context, channelID, text string) (*MessageRef, error)
	UpdateMessage(ctx context.Context, ref *MessageRef, text string) error
	UpdateWithDecisionPrompt(ctx context.Context, ref *MessageRef, prompt *DecisionPrompt) error
	DownloadFile(ctx context.Context, fileURL string) ([]byte, string, error)
	OpenSocketURL(ctx context.Context) (string, error)
}

type httpClient struct {
	baseURL  string
	botToken string
	client   *http.Client
	backoff  *retry.Backoff
}

// NewClient creates a chat platform client. Message posts and updates are
// retried with backoff on transport errors; downloads are not.
func NewClient(cfg ClientConfig) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	backoffCfg := retry.DefaultBackoffConfig()
	if cfg.Retry.MaxAttempts > 0 {
		backoffCfg = retry.BackoffConfig{
			InitialDelay: time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
			MaxDelay:     time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond,
			Multiplier:   2.0,
			MaxAttempts:  cfg.Retry.MaxAttempts,
			Jitter:       true,
		}
	}
	return &httpClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		botToken: cfg.BotToken,
		client:   &http.Client{Timeout: timeout},
		backoff:  retry.NewBackoff(backoffCfg),
	}
}

func (c *httpClient) PostMessage(ctx context.Context, channelID, text string) (*MessageRef, error) {
	req := postMessageRequest{Channel: channelID, Text: text}
	resp, err := c.callWithRetry(ctx, "/api/chat.postMessage", req)
	if err != nil {
		return nil, err
	}
	return &MessageRef{ChannelID: resp.Channel, Timestamp: resp.TS}, nil
}

func (c *httpClient) UpdateMessage(ctx context.Context, ref *MessageRef, text string) error {
	req := updateMessageRequest{Channel: ref.ChannelID, Timestamp: ref.Timestamp, Text: text}
	_, err := c.callWithRetry(ctx, "/api/chat.update", req)
	return err
}

func (c *httpClient) UpdateWithDecisionPrompt(ctx context.Context, ref *MessageRef, prompt *DecisionPrompt) error {
	req := updateMessageRequest{
		Channel:   ref.ChannelID,
		Timestamp: ref.Timestamp,
		Text:      fmt.Sprintf("블로그 포스팅 생성 완료: %s", prompt.Title),
		Blocks:    decisionBlocks(prompt),
	}
	_, err := c.callWithRetry(ctx, "/api/chat.update", req)
	return err
}

func (c *httpClient) OpenSocketURL(ctx context.Context) (string, error) {
	resp, err := c.call(ctx, "/api/connections.open", struct{}{})
	if err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("connections.open returned no url")
	}
	return resp.URL, nil
}

func (c *httpClient) DownloadFile(ctx context.Context, fileURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.botToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// callWithRetry retries transport-level failures. API-level rejections
// (ok=false) are returned immediately; re-sending a rejected payload would
// just duplicate the rejection.
func (c *httpClient) callWithRetry(ctx context.Context, endpoint string, payload interface{}) (*apiResponse, error) {
	var resp *apiResponse
	err := c.backoff.RetryWithPredicate(ctx, func() error {
		var callErr error
		resp, callErr = c.call(ctx, endpoint, payload)
		return callErr
	}, isTransient)
	return resp, err
}

func (c *httpClient) call(ctx context.Context, endpoint string, payload interface{}) (*apiResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.botToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &transientError{cause: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &transientError{cause: fmt.Errorf("request failed with status %d", resp.StatusCode)}
	}

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("chat API error: %s", result.Error)
	}

	return &result, nil
}

type transientError struct {
	cause error
}

func (e *transientError) Error() string { return e.cause.Error() }
func (e *transientError) Unwrap() error { return e.cause }

func isTransient(err error) bool {
	_, ok := err.(*transientError)
	return ok
}

func decisionBlocks(prompt *DecisionPrompt) []Block {
	tagLine := strings.Join(prompt.Tags, ", ")
	return []Block{
		{
			Type: "section",
			Text: &TextObject{Type: "mrkdwn", Text: fmt.Sprintf("*블로그 포스팅 생성 완료*\n\n*제목:*\n%s", prompt.Title)},
		},
		{
			Type: "section",
			Text: &TextObject{Type: "mrkdwn", Text: fmt.Sprintf("*본문 미리보기:*\n%s", prompt.BodyPreview)},
		},
		{
			Type: "section",
			Text: &TextObject{Type: "mrkdwn", Text: fmt.Sprintf("*태그 (%d개):*\n%s", len(prompt.Tags), tagLine)},
		},
		{Type: "divider"},
		{
			Type:    "actions",
			BlockID: "blog_post_actions",
			Elements: []ButtonElement{
				{
					Type:     "button",
					Text:     &TextObject{Type: "plain_text", Text: "승인 & 업로드"},
					Style:    "primary",
					Value:    prompt.PostID,
					ActionID: ActionApprovePost,
				},
				{
					Type:     "button",
					Text:     &TextObject{Type: "plain_text", Text: "거부"},
					Style:    "danger",
					Value:    prompt.PostID,
					ActionID: ActionRejectPost,
				},
			},
		},
	}
}
