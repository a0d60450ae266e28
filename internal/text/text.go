package text

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	hashtagPattern = regexp.MustCompile(`#([A-Za-z0-9]+)`)
	slugStrip      = regexp.MustCompile(`[^a-z0-9]+`)
)

// ExtractHashtags returns the distinct hashtag tokens in body: an
// alphanumeric word immediately following '#', case-sensitive, duplicates
// collapsed. Order follows first appearance.
func ExtractHashtags(body string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := m[1]
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// Slugify converts a title into a URL-safe slug: lowercase, runs of
// non-alphanumerics collapsed to single hyphens.
func Slugify(title string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// SlugHashtags joins the tokens of a slug with '#', the aggregate hashtag
// string stored on a new storyline.
func SlugHashtags(slug string) string {
	if slug == "" {
		return ""
	}
	return strings.Join(strings.Split(slug, "-"), "#")
}

// PlainText strips HTML markup from body, returning the visible text.
// Non-HTML input passes through unchanged; unparseable input is returned
// as-is rather than dropped.
func PlainText(body string) string {
	if !strings.Contains(body, "<") {
		return body
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return body
	}
	return strings.TrimSpace(doc.Text())
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
