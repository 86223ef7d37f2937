package excerpt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFromMarkdownStripsMarkup(t *testing.T) {
	src := "# Sports Day\n\nOur **annual** sports day was a [great success](https://example.org).\n\n```go\nfmt.Println(\"skip\")\n```\n\n- relay\n- long jump\n"
	got := FromMarkdown(src, 0)
	assert.Equal(t, "Sports Day Our annual sports day was a great success. relay long jump", got)
}

func TestFromMarkdownTruncates(t *testing.T) {
	src := strings.Repeat("word ", 200)
	got := FromMarkdown(src, MaxLength)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxLength)
	assert.True(t, strings.HasPrefix(got, "word word"))
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "ok", Truncate("ok", 10))
}
