package models

import "time"

// Attachment is a file carried by an inbound chat message. URL points at the
// chat platform's private download endpoint and requires the bot token.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mimetype"`
	URL      string `json:"url_private"`
}

// IsImage reports whether the attachment should be relayed to object storage.
func (a Attachment) IsImage() bool {
	return len(a.MimeType) >= 6 && a.MimeType[:6] == "image/"
}

// InboundMessage is a chat message that may trigger post generation.
type InboundMessage struct {
	Text        string
	Attachments []Attachment
	SenderID    string
	ChannelID   string
}

// DecisionAction names one of the two decision controls.
type DecisionAction string

const (
	DecisionApprove DecisionAction = "approve"
	DecisionReject  DecisionAction = "reject"
)

// Decision is a click on a decision control for a pending post.
type Decision struct {
	Action    DecisionAction
	PostID    string
	ChannelID string
	UserID    string
}

// GeneratedPost is the generator's structured output.
type GeneratedPost struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

// PendingPost is the unit of work awaiting a human decision. It is
// replace-only: once stored it is never mutated, only removed.
type PendingPost struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Body            string   `json:"body"`
	Tags            []string `json:"tags"`
	AssetURLs       []string `json:"assetUrls"`
	RequesterID     string   `json:"requesterId"`
	OriginChannelID string   `json:"originChannelId"`
}

// PublishResult is the publisher's verdict for a single invocation.
type PublishResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HistoryOutcome classifies a finished workflow for the publish history.
type HistoryOutcome string

const (
	OutcomePublished HistoryOutcome = "published"
	OutcomeFailed    HistoryOutcome = "failed"
	OutcomeRejected  HistoryOutcome = "rejected"
)

// HistoryEntry is one finished workflow recorded in the publish history.
type HistoryEntry struct {
	ID        int64          `json:"id"`
	PostID    string         `json:"postId"`
	Title     string         `json:"title"`
	Outcome   HistoryOutcome `json:"outcome"`
	URL       string         `json:"url,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
