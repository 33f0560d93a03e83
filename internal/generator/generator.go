package generator

import (
	"context"
	"encoding/json"
	"strings"

	"matchbot/internal/constants"
	apperrors "matchbot/internal/errors"
	"matchbot/internal/models"

	"github.com/sirupsen/logrus"
)

// Generator produces a structured blog post from freeform user text. A
// response that cannot be parsed into the expected shape is a hard
// MALFORMED_RESPONSE failure; there is no free-text fallback. The call is
// never retried — a transient backend failure aborts the whole attempt and
// is surfaced to the requester.
type Generator struct {
	llm    LLM
	logger *logrus.Logger
}

// New creates a content generator.
func New(llm LLM, logger *logrus.Logger) *Generator {
	return &Generator{llm: llm, logger: logger}
}

// Generate builds the prompt, calls the backend, and strictly validates the
// response shape.
func (g *Generator) Generate(ctx context.Context, userText string, assetURLs []string) (*models.GeneratedPost, error) {
	raw, err := g.llm.Complete(ctx, styleDirective, buildUserPrompt(userText, len(assetURLs)))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeFetch, "generation backend request failed").
			WithUserMessage("포스팅 생성 요청이 실패했어요. 잠시 후 다시 시도해주세요.")
	}

	post, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if len(post.Tags) < constants.RecommendedTagCount {
		g.logger.WithFields(logrus.Fields{
			"tags":        len(post.Tags),
			"recommended": constants.RecommendedTagCount,
		}).Warn("Generated post has fewer tags than recommended")
	}

	return post, nil
}

// parseResponse extracts the JSON object from the raw model output and
// validates that every required field is present.
func parseResponse(raw string) (*models.GeneratedPost, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, apperrors.New(apperrors.ErrCodeMalformedResponse, "no JSON object in generation response").
			WithUserMessage("생성 결과를 해석할 수 없어요.")
	}

	var post models.GeneratedPost
	if err := json.Unmarshal([]byte(raw[start:end+1]), &post); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeMalformedResponse, "generation response is not valid JSON").
			WithUserMessage("생성 결과를 해석할 수 없어요.")
	}

	if post.Title == "" {
		return nil, apperrors.New(apperrors.ErrCodeMalformedResponse, "generation response missing title").
			WithUserMessage("생성 결과에 제목이 없어요.")
	}
	if post.Body == "" {
		return nil, apperrors.New(apperrors.ErrCodeMalformedResponse, "generation response missing body").
			WithUserMessage("생성 결과에 본문이 없어요.")
	}
	if post.Tags == nil {
		return nil, apperrors.New(apperrors.ErrCodeMalformedResponse, "generation response missing tags").
			WithUserMessage("생성 결과에 태그가 없어요.")
	}

	return &post, nil
}
