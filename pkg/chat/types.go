package chat

import (
	"encoding/json"
	"time"

	"matchbot/internal/models"
)

// Decision control action IDs carried by the approve/reject buttons.
const (
	ActionApprovePost = "approve_post"
	ActionRejectPost  = "reject_post"
)

// ClientConfig configures the chat platform HTTP client.
type ClientConfig struct {
	BaseURL  string
	BotToken string
	Timeout  time.Duration
	Retry    models.RetryConfig
}

// MessageRef identifies a posted message so it can be updated later.
type MessageRef struct {
	ChannelID string `json:"channel"`
	Timestamp string `json:"ts"`
}

// DecisionPrompt is the preview-plus-buttons message shown after generation.
type DecisionPrompt struct {
	PostID      string
	Title       string
	BodyPreview string
	Tags        []string
}

// TextObject is a formatted text fragment inside a block.
type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ButtonElement is one clickable element of an actions block.
type ButtonElement struct {
	Type     string      `json:"type"`
	Text     *TextObject `json:"text"`
	Style    string      `json:"style,omitempty"`
	Value    string      `json:"value"`
	ActionID string      `json:"action_id"`
}

// Block is one layout block of a structured message.
type Block struct {
	Type     string          `json:"type"`
	BlockID  string          `json:"block_id,omitempty"`
	Text     *TextObject     `json:"text,omitempty"`
	Elements []ButtonElement `json:"elements,omitempty"`
}

type postMessageRequest struct {
	Channel string  `json:"channel"`
	Text    string  `json:"text"`
	Blocks  []Block `json:"blocks,omitempty"`
}

type updateMessageRequest struct {
	Channel   string  `json:"channel"`
	Timestamp string  `json:"ts"`
	Text      string  `json:"text"`
	Blocks    []Block `json:"blocks,omitempty"`
}

type apiResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Channel string `json:"channel,omitempty"`
	TS      string `json:"ts,omitempty"`
	URL     string `json:"url,omitempty"`
}

// EventPayload is the body of an events webhook delivery.
type EventPayload struct {
	Type      string       `json:"type"`
	Challenge string       `json:"challenge,omitempty"`
	Event     MessageEvent `json:"event"`
}

const (
	EventTypeURLVerification = "url_verification"
	EventTypeEventCallback   = "event_callback"
)

// MessageEvent is an inbound message event from the chat platform.
type MessageEvent struct {
	Type    string              `json:"type"`
	Subtype string              `json:"subtype,omitempty"`
	BotID   string              `json:"bot_id,omitempty"`
	Text    string              `json:"text"`
	User    string              `json:"user"`
	Channel string              `json:"channel"`
	Files   []models.Attachment `json:"files,omitempty"`
}

// IsUserMessage reports whether the event is a plain message typed by a
// human. Bot echoes and subtyped events (edits, joins) never trigger a post.
func (e *MessageEvent) IsUserMessage() bool {
	return e.Type == "message" && e.Subtype == "" && e.BotID == ""
}

// ToInbound converts the event to the orchestrator's inbound message.
func (e *MessageEvent) ToInbound() *models.InboundMessage {
	return &models.InboundMessage{
		Text:        e.Text,
		Attachments: e.Files,
		SenderID:    e.User,
		ChannelID:   e.Channel,
	}
}

// ActionPayload is the body of a decision-control click delivery.
type ActionPayload struct {
	Type string `json:"type"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
	Actions []ActionItem `json:"actions"`
}

// ActionItem is one clicked control inside an action payload. Value carries
// the pending post id as an opaque string.
type ActionItem struct {
	ActionID string `json:"action_id"`
	Value    string `json:"value"`
}

// ToDecision converts the payload's first action to a workflow decision.
// Returns nil when the payload carries no recognized decision control.
func (p *ActionPayload) ToDecision() *models.Decision {
	if len(p.Actions) == 0 {
		return nil
	}
	var action models.DecisionAction
	switch p.Actions[0].ActionID {
	case ActionApprovePost:
		action = models.DecisionApprove
	case ActionRejectPost:
		action = models.DecisionReject
	default:
		return nil
	}
	return &models.Decision{
		Action:    action,
		PostID:    p.Actions[0].Value,
		ChannelID: p.Channel.ID,
		UserID:    p.User.ID,
	}
}

// SocketEnvelope wraps one delivery on a socket-mode connection.
type SocketEnvelope struct {
	EnvelopeID string          `json:"envelope_id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
}

const (
	SocketTypeHello       = "hello"
	SocketTypeDisconnect  = "disconnect"
	SocketTypeEventsAPI   = "events_api"
	SocketTypeInteractive = "interactive"
)

// SocketAck acknowledges receipt of an envelope.
type SocketAck struct {
	EnvelopeID string `json:"envelope_id"`
}
