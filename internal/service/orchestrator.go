package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"matchbot/internal/constants"
	apperrors "matchbot/internal/errors"
	"matchbot/internal/models"
	"matchbot/internal/store"
	"matchbot/internal/tracing"
	"matchbot/pkg/chat"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// ChatClient is the slice of the chat platform the orchestrator talks to.
type ChatClient interface {
	PostMessage(ctx context.Context, channelID, text string) (*chat.MessageRef, error)
	UpdateMessage(ctx context.Context, ref *chat.MessageRef, text string) error
	UpdateWithDecisionPrompt(ctx context.Context, ref *chat.MessageRef, prompt *chat.DecisionPrompt) error
}

// AssetRelay copies message attachments into durable storage.
type AssetRelay interface {
	RelayAll(ctx context.Context, attachments []models.Attachment) []string
}

// ContentGenerator produces the structured post.
type ContentGenerator interface {
	Generate(ctx context.Context, userText string, assetURLs []string) (*models.GeneratedPost, error)
}

// PublisherBridge hands a finalized post to the external publisher.
type PublisherBridge interface {
	Publish(ctx context.Context, post *models.PendingPost) (*models.PublishResult, error)
}

// HistoryRecorder persists finished workflow outcomes. May be nil-valued via
// a no-op when history is disabled.
type HistoryRecorder interface {
	Record(ctx context.Context, entry *models.HistoryEntry) error
}

// Config tunes the orchestrator.
type Config struct {
	// ChannelID is the only source channel that triggers generation.
	ChannelID string
	// GenerationTimeout bounds the generation call. Zero blocks until the
	// backend answers.
	GenerationTimeout time.Duration
}

// Orchestrator drives a post from inbound message through human decision to
// publication or cancellation:
//
//	Generating -> AwaitingDecision -> Publishing -> Done
//	                               -> Rejected
//
// Each inbound event is handled as an independent task; the pending store is
// the only shared state, and its atomic Take is the only synchronization
// between concurrent decisions.
type Orchestrator struct {
	chat      ChatClient
	relay     AssetRelay
	generator ContentGenerator
	pending   store.PendingStore
	bridge    PublisherBridge
	history   HistoryRecorder
	cfg       Config
	logger    *logrus.Logger
}

// NewOrchestrator wires the workflow components together. history may be nil.
func NewOrchestrator(chatClient ChatClient, relay AssetRelay, gen ContentGenerator, pending store.PendingStore, bridge PublisherBridge, history HistoryRecorder, cfg Config, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		chat:      chatClient,
		relay:     relay,
		generator: gen,
		pending:   pending,
		bridge:    bridge,
		history:   history,
		cfg:       cfg,
		logger:    logger,
	}
}

// HandleMessage runs the Generating phase for one inbound message. A failure
// anywhere is terminal: it is reported to the originating channel and no
// pending post is created.
func (o *Orchestrator) HandleMessage(ctx context.Context, msg *models.InboundMessage) {
	ctx, span := tracing.StartSpan(ctx, "orchestrator.handle_message",
		attribute.String("channel", msg.ChannelID),
		attribute.String("sender", msg.SenderID),
	)
	defer span.End()
	defer o.recoverEvent(ctx, msg.ChannelID)

	if msg.ChannelID != o.cfg.ChannelID {
		o.logger.WithField("channel", msg.ChannelID).Debug("Ignoring message from non-configured channel")
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		o.logger.Debug("Ignoring message without text")
		return
	}

	o.logger.WithFields(logrus.Fields{
		"sender":      msg.SenderID,
		"attachments": len(msg.Attachments),
	}).Info("Blog post request received")

	loadingRef, err := o.chat.PostMessage(ctx, msg.ChannelID, "블로그 포스팅을 생성하고 있어요... 잠시만 기다려주세요!")
	if err != nil {
		o.logger.WithError(err).Error("Failed to post loading message")
		tracing.RecordError(ctx, err)
		return
	}

	assetURLs := o.relay.RelayAll(ctx, msg.Attachments)
	tracing.AddSpanAttributes(ctx, attribute.Int("assets", len(assetURLs)))

	genCtx := ctx
	if o.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, o.cfg.GenerationTimeout)
		defer cancel()
	}

	generated, err := o.generator.Generate(genCtx, msg.Text, assetURLs)
	if err != nil {
		o.logger.WithError(err).Error("Content generation failed")
		tracing.RecordError(ctx, err)
		o.updateStatus(ctx, loadingRef, fmt.Sprintf("포스팅 생성에 실패했어요: %s", apperrors.GetUserMessage(err)))
		return
	}

	id := store.NewID()
	o.pending.Put(id, &models.PendingPost{
		ID:              id,
		Title:           generated.Title,
		Body:            generated.Body,
		Tags:            generated.Tags,
		AssetURLs:       assetURLs,
		RequesterID:     msg.SenderID,
		OriginChannelID: msg.ChannelID,
	})

	prompt := &chat.DecisionPrompt{
		PostID:      id,
		Title:       generated.Title,
		BodyPreview: previewBody(generated.Body),
		Tags:        generated.Tags,
	}
	if err := o.chat.UpdateWithDecisionPrompt(ctx, loadingRef, prompt); err != nil {
		// The post stays pending but its id is now unreachable from the
		// chat UI; it is orphaned until restart.
		o.logger.WithError(err).WithField("post_id", id).Error("Failed to show decision prompt")
		tracing.RecordError(ctx, err)
		return
	}

	o.logger.WithField("post_id", id).Info("Post generated, awaiting decision")
}

// HandleDecision runs the Publishing or Rejected phase for one decision
// click. The store's atomic take is the tie-break: the decision that gets
// the entry proceeds, any later duplicate is a silent no-op.
func (o *Orchestrator) HandleDecision(ctx context.Context, decision *models.Decision) {
	ctx, span := tracing.StartSpan(ctx, "orchestrator.handle_decision",
		attribute.String("action", string(decision.Action)),
		attribute.String("post_id", decision.PostID),
	)
	defer span.End()
	defer o.recoverEvent(ctx, decision.ChannelID)

	post, ok := o.pending.Take(decision.PostID)
	if !ok {
		o.logger.WithFields(logrus.Fields{
			"post_id": decision.PostID,
			"action":  decision.Action,
		}).Debug("Decision for unknown or already-consumed post, nothing to do")
		return
	}

	switch decision.Action {
	case models.DecisionApprove:
		o.publish(ctx, post)
	case models.DecisionReject:
		o.logger.WithField("post_id", post.ID).Info("Post rejected")
		o.postStatus(ctx, post.OriginChannelID, "포스팅이 취소되었습니다.")
		o.record(ctx, post, models.OutcomeRejected, "", "")
	default:
		// Unknown action consumed the entry; put it back so a valid
		// decision can still land.
		o.pending.Put(post.ID, post)
		o.logger.WithField("action", decision.Action).Warn("Unknown decision action")
	}
}

func (o *Orchestrator) publish(ctx context.Context, post *models.PendingPost) {
	statusRef, err := o.chat.PostMessage(ctx, post.OriginChannelID, "네이버 블로그에 업로드 중입니다...")
	if err != nil {
		o.logger.WithError(err).Error("Failed to post publishing status")
		tracing.RecordError(ctx, err)
		statusRef = nil
	}

	result, err := o.bridge.Publish(ctx, post)
	if err != nil {
		o.logger.WithError(err).WithField("post_id", post.ID).Error("Publisher handoff failed")
		tracing.RecordError(ctx, err)
		o.resolveStatus(ctx, statusRef, post.OriginChannelID, fmt.Sprintf("블로그 업로드에 실패했어요: %s", apperrors.GetUserMessage(err)))
		o.record(ctx, post, models.OutcomeFailed, "", err.Error())
		return
	}

	if result.Success {
		o.logger.WithFields(logrus.Fields{
			"post_id": post.ID,
			"url":     result.URL,
		}).Info("Post published")
		o.resolveStatus(ctx, statusRef, post.OriginChannelID, fmt.Sprintf("블로그 포스팅 완료!\n%s", result.URL))
		o.record(ctx, post, models.OutcomePublished, result.URL, "")
		return
	}

	o.logger.WithFields(logrus.Fields{
		"post_id": post.ID,
		"error":   result.Error,
	}).Error("Publisher reported failure")
	o.resolveStatus(ctx, statusRef, post.OriginChannelID, fmt.Sprintf("블로그 업로드 실패: %s", result.Error))
	o.record(ctx, post, models.OutcomeFailed, "", result.Error)
}

// recoverEvent keeps a panicking event handler from taking down the process:
// the failure goes to the tracing sink and the user gets a generic report.
func (o *Orchestrator) recoverEvent(ctx context.Context, channelID string) {
	if r := recover(); r != nil {
		err := fmt.Errorf("panic in event handler: %v", r)
		o.logger.WithError(err).Error("Recovered from panic")
		tracing.RecordError(ctx, err)
		if channelID != "" {
			o.postStatus(ctx, channelID, "오류가 발생했어요. 잠시 후 다시 시도해주세요.")
		}
	}
}

func (o *Orchestrator) postStatus(ctx context.Context, channelID, text string) {
	if _, err := o.chat.PostMessage(ctx, channelID, text); err != nil {
		o.logger.WithError(err).Error("Failed to post status message")
	}
}

func (o *Orchestrator) updateStatus(ctx context.Context, ref *chat.MessageRef, text string) {
	if err := o.chat.UpdateMessage(ctx, ref, text); err != nil {
		o.logger.WithError(err).Error("Failed to update status message")
	}
}

// resolveStatus updates the in-progress message when we have its reference,
// otherwise falls back to posting a fresh one.
func (o *Orchestrator) resolveStatus(ctx context.Context, ref *chat.MessageRef, channelID, text string) {
	if ref != nil {
		o.updateStatus(ctx, ref, text)
		return
	}
	o.postStatus(ctx, channelID, text)
}

func (o *Orchestrator) record(ctx context.Context, post *models.PendingPost, outcome models.HistoryOutcome, url, errText string) {
	if o.history == nil {
		return
	}
	entry := &models.HistoryEntry{
		PostID:  post.ID,
		Title:   post.Title,
		Outcome: outcome,
		URL:     url,
		Error:   errText,
	}
	if err := o.history.Record(ctx, entry); err != nil {
		o.logger.WithError(err).Warn("Failed to record publish history")
	}
}

func previewBody(body string) string {
	runes := []rune(body)
	if len(runes) <= constants.PreviewBodyRunes {
		return body
	}
	return string(runes[:constants.PreviewBodyRunes]) + "..."
}
