package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "simple tags",
			body: "Fire at the docks #breaking #fire",
			want: []string{"breaking", "fire"},
		},
		{
			name: "duplicates collapsed",
			body: "Breaking #news about #news",
			want: []string{"news"},
		},
		{
			name: "case sensitive",
			body: "#News and #news differ",
			want: []string{"News", "news"},
		},
		{
			name: "no tags",
			body: "nothing to see here",
			want: nil,
		},
		{
			name: "punctuation terminates token",
			body: "seen at #dock-9 tonight",
			want: []string{"dock"},
		},
		{
			name: "numeric tags",
			body: "#2024 recap",
			want: []string{"2024"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractHashtags(tt.body))
		})
	}
}

func TestExtractHashtagsIdempotent(t *testing.T) {
	body := "#a #b #a #c #b"
	first := ExtractHashtags(body)
	second := ExtractHashtags(body)
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "big-fire-downtown", Slugify("Big Fire, Downtown!"))
	assert.Equal(t, "a-b", Slugify("  A -- b  "))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestSlugHashtags(t *testing.T) {
	assert.Equal(t, "big#fire#downtown", SlugHashtags("big-fire-downtown"))
	assert.Equal(t, "solo", SlugHashtags("solo"))
	assert.Equal(t, "", SlugHashtags(""))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "plain body #tag", PlainText("plain body #tag"))
	assert.Equal(t, "hello world", PlainText("<p>hello <b>world</b></p>"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "ab", Truncate("ab", 10))
}
