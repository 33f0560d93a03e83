package generator

import (
	"fmt"
	"strings"
)

// styleDirective is the fixed system prompt that pins the blog voice. The
// target blog is a casual Korean match-diary, so the register is informal
// first-person with short paragraphs.
const styleDirective = `당신은 네이버 블로그 포스팅을 작성하는 전문 작가입니다.
아래 스타일 가이드를 철저히 따라 글을 작성해주세요:

## 말투 및 톤
- 친근하고 편안한 반말 사용 (예: "~했어", "~인 것 같아", "~더라")
- 독자와 대화하듯이 자연스러운 어투
- 감정을 솔직하게 표현

## 문단 구성
- 짧고 간결한 문단 (2-3문장)
- 중간중간 공백으로 가독성 향상

## 특징적 요소
- 경험과 느낌을 중심으로 서술
- 구체적인 디테일 포함
- 사진과 연관된 설명 추가

## SEO 태그
- 주제와 관련된 태그 10개 이상 생성
- 지역명, 팀명 등 구체적인 키워드 포함`

// buildUserPrompt combines the caller's freeform text with the attachment
// count and the required response shape. Image positions in the body are
// placeholder tokens resolved later by the publisher.
func buildUserPrompt(userText string, assetCount int) string {
	var b strings.Builder
	b.WriteString("다음 내용을 바탕으로 블로그 포스팅을 작성해주세요.\n\n")
	b.WriteString("사용자 입력 내용:\n")
	b.WriteString(userText)
	b.WriteString("\n")
	if assetCount > 0 {
		fmt.Fprintf(&b, "\n첨부된 이미지: %d장\n", assetCount)
	}
	b.WriteString(`
아래 JSON 형식으로만 응답해주세요:
{
  "title": "포스팅 제목 (40자 이내)",
  "body": "포스팅 본문 (이미지는 [IMAGE_1], [IMAGE_2] 형태로 표시)",
  "tags": ["태그1", "태그2", "... 10개 이상"]
}`)
	return b.String()
}
