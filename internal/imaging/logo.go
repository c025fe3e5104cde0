package imaging

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var logoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)cropped.*removebg-preview`),
	regexp.MustCompile(`(?i)logo`),
	regexp.MustCompile(`(?i)favicon`),
	regexp.MustCompile(`(?i)[/_.-]icons?[/_.-]`),
}

var logoSubstrings = []string{
	"logo", "brand", "cropped", "icon", "favicon", "avatar",
	"thumbnail-", "-96x96", "-48x48", "-32x32",
}

var dimensionSuffix = regexp.MustCompile(`(?i)-(\d+)x(\d+)\.(?:jpe?g|png|webp|gif)(?:$|[?#])`)

// LogoReason reports why u looks like a logo or branding asset; the empty string means it does not.
func LogoReason(u string) string {
	for _, re := range logoPatterns {
		if re.MatchString(u) {
			return "pattern " + re.String()
		}
	}

	lower := strings.ToLower(u)
	for _, s := range logoSubstrings {
		if strings.Contains(lower, s) {
			return "substring " + s
		}
	}

	if m := dimensionSuffix.FindStringSubmatch(u); m != nil {
		w, errW := strconv.Atoi(m[1])
		h, errH := strconv.Atoi(m[2])
		if errW == nil && errH == nil {
			if w < 200 || h < 200 {
				return "dimensions too small"
			}
			ratio := float64(w) / float64(h)
			if ratio > 5 || ratio < 0.2 {
				return "aspect ratio out of range"
			}
		}
	}
	return ""
}

// IsLikelyLogo applies the logo heuristic to a single URL.
func IsLikelyLogo(u string) bool {
	return LogoReason(u) != ""
}

// SelectCandidate picks the first non-logo candidate. A single candidate is kept even if it looks
// like a logo. When every candidate is rejected the first one is returned unless rejectFallback is set.
func SelectCandidate(candidates []string, rejectFallback bool, logger *slog.Logger) (string, bool) {
	switch len(candidates) {
	case 0:
		return "", false
	case 1:
		if reason := LogoReason(candidates[0]); reason != "" && logger != nil {
			logger.Debug("single image candidate looks like a logo", "url", candidates[0], "reason", reason)
		}
		return candidates[0], true
	}

	for _, c := range candidates {
		reason := LogoReason(c)
		if reason == "" {
			return c, true
		}
		if logger != nil {
			logger.Debug("image candidate rejected", "url", c, "reason", reason)
		}
	}

	if rejectFallback {
		return "", false
	}
	if logger != nil {
		logger.Info("all image candidates look like logos, using first", "url", candidates[0])
	}
	return candidates[0], true
}
