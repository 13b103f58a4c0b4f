package graph

import (
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// NormalizeURL rewrites a URL into its canonical lookup form: lowercase
// https scheme and host, no query, no fragment, no trailing slash. Inputs
// that do not parse are returned unchanged.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if parsed.Scheme == "" {
		reparsed, err := url.Parse("https://" + raw)
		if err != nil {
			return raw
		}
		parsed = reparsed
	}

	scheme := strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Host)
	path := parsed.Path
	if path != "" {
		path = strings.TrimRight(path, "/")
	}
	return scheme + "://" + host + path
}

// CandidateURLs lists the spellings a link may be indexed under, original
// first. Beyond the normalized form it covers the usual aliases: http vs
// https, trailing slashes, plain .pdf suffixes and arxiv's pdf/abs pairs.
func CandidateURLs(raw string) []string {
	normalized := NormalizeURL(raw)
	candidates := []string{raw, normalized}

	if strings.HasPrefix(normalized, "http://") {
		candidates = append(candidates, "https://"+strings.TrimPrefix(normalized, "http://"))
	}
	if strings.HasSuffix(raw, "/") {
		candidates = append(candidates, strings.TrimRight(raw, "/"))
	}
	if strings.HasSuffix(normalized, ".pdf") {
		candidates = append(candidates, strings.TrimSuffix(normalized, ".pdf"))
	}
	if strings.Contains(normalized, "arxiv.org/pdf/") {
		abs := strings.ReplaceAll(normalized, "arxiv.org/pdf/", "arxiv.org/abs/")
		abs = strings.TrimSuffix(abs, ".pdf")
		candidates = append(candidates, abs)
	}

	return lo.Compact(lo.Uniq(candidates))
}
