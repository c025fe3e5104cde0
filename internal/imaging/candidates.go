package imaging

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// Fallback for documents goquery cannot reach (e.g. truncated at the byte cap mid-head).
	ogPropertyFirst = regexp.MustCompile(`(?is)<meta[^>]+(?:property|name)\s*=\s*["']og:image["'][^>]*content\s*=\s*["']([^"']+)["']`)
	ogContentFirst  = regexp.MustCompile(`(?is)<meta[^>]+content\s*=\s*["']([^"']+)["'][^>]*(?:property|name)\s*=\s*["']og:image["']`)

	markdownImage = regexp.MustCompile(`!\[[^\]]*\]\(\s*<?([^)\s>]+)`)
	htmlImage     = regexp.MustCompile(`(?i)<img[^>]+src\s*=\s*["']([^"']+)["']`)
)

// OGImageCandidates returns every og:image URL in html, resolved against base, in document order.
func OGImageCandidates(html string, base *url.URL) []string {
	var raw []string

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		doc.Find(`meta[property="og:image"], meta[name="og:image"]`).Each(func(_ int, s *goquery.Selection) {
			if content, ok := s.Attr("content"); ok {
				raw = append(raw, content)
			}
		})
	}

	if len(raw) == 0 {
		raw = regexCandidates(html)
	}

	return resolveAll(raw, base)
}

func regexCandidates(html string) []string {
	type hit struct {
		pos int
		url string
	}
	var hits []hit
	for _, re := range []*regexp.Regexp{ogPropertyFirst, ogContentFirst} {
		for _, m := range re.FindAllStringSubmatchIndex(html, -1) {
			hits = append(hits, hit{pos: m[0], url: html[m[2]:m[3]]})
		}
	}

	// keep document order across both attribute orders
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.url)
	}
	return out
}

// MarkdownImage returns the first image referenced in markdown, either ![alt](url) or <img src>.
func MarkdownImage(markdown string, base *url.URL) string {
	first, firstPos := "", -1
	for _, re := range []*regexp.Regexp{markdownImage, htmlImage} {
		if m := re.FindStringSubmatchIndex(markdown); m != nil && (firstPos < 0 || m[0] < firstPos) {
			firstPos = m[0]
			first = markdown[m[2]:m[3]]
		}
	}
	if first == "" {
		return ""
	}

	resolved := resolveAll([]string{first}, base)
	if len(resolved) == 0 {
		return ""
	}
	return resolved[0]
}

// resolveAll makes every candidate absolute (including //host/path forms) and drops unusable ones.
func resolveAll(raw []string, base *url.URL) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" || strings.HasPrefix(r, "data:") {
			continue
		}
		parsed, err := url.Parse(r)
		if err != nil {
			continue
		}
		if base != nil {
			parsed = base.ResolveReference(parsed)
		}
		if parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			continue
		}
		abs := parsed.String()
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}
