package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	apperrors "matchbot/internal/errors"
	"matchbot/internal/models"

	"github.com/sirupsen/logrus"
)

// Bridge hands a finalized post to the external publishing routine and
// relays its structured verdict. The publisher's own failures (non-zero
// exit, garbage output) come back inside the PublishResult; the returned
// error covers only handoff infrastructure problems.
type Bridge interface {
	Publish(ctx context.Context, post *models.PendingPost) (*models.PublishResult, error)
}

// payload is the serialized handoff format the external publisher reads.
type payload struct {
	Title     string   `json:"title"`
	Body      string   `json:"content"`
	Tags      []string `json:"tags"`
	ImageURLs []string `json:"imageUrls"`
}

type execBridge struct {
	command string
	args    []string
	workDir string
	timeout time.Duration
	logger  *logrus.Logger
}

// NewExecBridge creates a bridge that spawns the configured publisher
// command with the handoff file path appended as the last argument.
func NewExecBridge(cfg models.PublisherConfig, logger *logrus.Logger) Bridge {
	return &execBridge{
		command: cfg.Command,
		args:    cfg.Args,
		workDir: cfg.WorkDir,
		timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		logger:  logger,
	}
}

func (b *execBridge) Publish(ctx context.Context, post *models.PendingPost) (*models.PublishResult, error) {
	body := resolveImagePlaceholders(post.Body, post.AssetURLs)

	data, err := json.MarshalIndent(payload{
		Title:     post.Title,
		Body:      body,
		Tags:      post.Tags,
		ImageURLs: post.AssetURLs,
	}, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodePublish, "failed to serialize post")
	}

	tmpFile, err := os.CreateTemp("", "matchbot-post-*.json")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodePublish, "failed to create handoff file")
	}
	tmpPath := tmpFile.Name()
	// The handoff file is removed on every exit path; leaking it outranks
	// any error we might be reporting.
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			b.logger.WithError(err).WithField("path", tmpPath).Warn("Failed to remove handoff file")
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return nil, apperrors.Wrap(err, apperrors.ErrCodePublish, "failed to write handoff file")
	}
	if err := tmpFile.Close(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodePublish, "failed to close handoff file")
	}

	runCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	args := append(append([]string{}, b.args...), tmpPath)
	cmd := exec.CommandContext(runCtx, b.command, args...)
	cmd.Dir = b.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	b.logger.WithFields(logrus.Fields{
		"command": b.command,
		"post_id": post.ID,
	}).Info("Invoking external publisher")

	if err := cmd.Run(); err != nil {
		diagnostic := strings.TrimSpace(stderr.String())
		if diagnostic == "" {
			diagnostic = err.Error()
		}
		return &models.PublishResult{Success: false, Error: diagnostic}, nil
	}

	var result models.PublishResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return &models.PublishResult{
			Success: false,
			Error:   fmt.Sprintf("unparsable publisher output: %s", strings.TrimSpace(stdout.String())),
		}, nil
	}

	return &result, nil
}

// resolveImagePlaceholders substitutes ordered [IMAGE_n] tokens with the
// index-aligned asset URLs. Tokens beyond the asset list are left in place
// for the publisher to flag.
func resolveImagePlaceholders(body string, assetURLs []string) string {
	for i, url := range assetURLs {
		body = strings.ReplaceAll(body, fmt.Sprintf("[IMAGE_%d]", i+1), url)
	}
	return body
}
