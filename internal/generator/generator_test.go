package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "matchbot/internal/errors"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLLM struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
}

func (m *mockLLM) Complete(ctx context.Context, system, user string) (string, error) {
	m.lastSystem = system
	m.lastUser = user
	return m.response, m.err
}

const validResponse = `{
	"title": "오늘 잠실 직관 후기",
	"body": "드디어 다녀왔어! [IMAGE_1] 분위기 최고더라.",
	"tags": ["야구", "직관", "잠실", "주말", "후기", "야구장", "응원", "치맥", "서울", "데이트"]
}`

func newTestGenerator(llm LLM) (*Generator, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return New(llm, logger), hook
}

func TestGenerateSuccess(t *testing.T) {
	llm := &mockLLM{response: validResponse}
	gen, _ := newTestGenerator(llm)

	post, err := gen.Generate(context.Background(), "오늘 경기 직관 후기", []string{"https://cdn.example.com/1.jpg"})
	require.NoError(t, err)

	assert.Equal(t, "오늘 잠실 직관 후기", post.Title)
	assert.Contains(t, post.Body, "[IMAGE_1]")
	assert.Len(t, post.Tags, 10)
}

func TestGeneratePromptIncludesAssetCount(t *testing.T) {
	llm := &mockLLM{response: validResponse}
	gen, _ := newTestGenerator(llm)

	_, err := gen.Generate(context.Background(), "직관 후기", []string{"u1", "u2", "u3"})
	require.NoError(t, err)

	assert.Contains(t, llm.lastUser, "3장")
	assert.Contains(t, llm.lastUser, "직관 후기")
	assert.Contains(t, llm.lastSystem, "스타일 가이드")
}

func TestGenerateStripsSurroundingProse(t *testing.T) {
	// Models sometimes wrap the JSON in chatter; only the object counts.
	llm := &mockLLM{response: "생성 결과입니다:\n" + validResponse + "\n확인해주세요."}
	gen, _ := newTestGenerator(llm)

	post, err := gen.Generate(context.Background(), "후기", nil)
	require.NoError(t, err)
	assert.Equal(t, "오늘 잠실 직관 후기", post.Title)
}

func TestGenerateNonJSONIsMalformed(t *testing.T) {
	llm := &mockLLM{response: "죄송하지만 포스팅을 작성할 수 없습니다."}
	gen, _ := newTestGenerator(llm)

	post, err := gen.Generate(context.Background(), "후기", nil)
	assert.Nil(t, post)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMalformedResponse, apperrors.GetCode(err))
}

func TestGenerateInvalidJSONIsMalformed(t *testing.T) {
	llm := &mockLLM{response: `{"title": "제목", "body": "본문", "tags": [unterminated`}
	gen, _ := newTestGenerator(llm)

	_, err := gen.Generate(context.Background(), "후기", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMalformedResponse, apperrors.GetCode(err))
}

func TestGenerateMissingTagsIsMalformed(t *testing.T) {
	llm := &mockLLM{response: `{"title": "제목", "body": "본문"}`}
	gen, _ := newTestGenerator(llm)

	_, err := gen.Generate(context.Background(), "후기", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMalformedResponse, apperrors.GetCode(err))
}

func TestGenerateMissingTitleIsMalformed(t *testing.T) {
	llm := &mockLLM{response: `{"body": "본문", "tags": ["a"]}`}
	gen, _ := newTestGenerator(llm)

	_, err := gen.Generate(context.Background(), "후기", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMalformedResponse, apperrors.GetCode(err))
}

func TestGenerateFewTagsIsAcceptedButLogged(t *testing.T) {
	llm := &mockLLM{response: `{"title": "제목", "body": "본문", "tags": ["야구", "직관", "후기"]}`}
	gen, hook := newTestGenerator(llm)

	post, err := gen.Generate(context.Background(), "후기", nil)
	require.NoError(t, err)
	assert.Len(t, post.Tags, 3)

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "fewer tags") {
			warned = true
		}
	}
	assert.True(t, warned, "expected a warning about the tag count")
}

func TestGenerateEmptyTagsIsAccepted(t *testing.T) {
	llm := &mockLLM{response: `{"title": "제목", "body": "본문", "tags": []}`}
	gen, _ := newTestGenerator(llm)

	post, err := gen.Generate(context.Background(), "후기", nil)
	require.NoError(t, err)
	assert.Empty(t, post.Tags)
}

func TestGenerateBackendErrorIsSurfaced(t *testing.T) {
	llm := &mockLLM{err: errors.New("connection refused")}
	gen, _ := newTestGenerator(llm)

	post, err := gen.Generate(context.Background(), "후기", nil)
	assert.Nil(t, post)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeFetch, apperrors.GetCode(err))
	assert.NotEqual(t, "An internal error occurred", apperrors.GetUserMessage(err))
}
