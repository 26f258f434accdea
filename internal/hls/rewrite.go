// Package hls rewrites stored stream manifests so key and segment fetches
// flow back through the gated API.
package hls

import (
	"fmt"
	"strings"
)

// Rewrite transforms a stored m3u8 manifest:
//   - the #EXT-X-KEY line's URI points at {base}/media/keys/{mediaID} and
//     its IV attribute is set to 0x{ivHex}
//   - each segment line segmentNNN.ts becomes {base}/media/segment/{mediaID}/{n}
//
// Every other line passes through byte for byte.
func Rewrite(manifest []byte, ivHex, mediaID, baseURL string) []byte {
	lines := strings.Split(string(manifest), "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "#EXT-X-KEY"):
			out = append(out, rewriteKeyLine(line, ivHex, mediaID, baseURL))
		case line != "" && !strings.HasPrefix(line, "#"):
			out = append(out, rewriteSegmentLine(line, mediaID, baseURL))
		default:
			out = append(out, line)
		}
	}

	return []byte(strings.Join(out, "\n"))
}

// rewriteKeyLine replaces the URI attribute and pins the IV
func rewriteKeyLine(line, ivHex, mediaID, baseURL string) string {
	prefix, attrText, found := strings.Cut(line, ":")
	if !found {
		return line
	}

	attrs := splitAttributes(attrText)
	rewritten := make([]string, 0, len(attrs)+1)
	ivSeen := false

	for _, attr := range attrs {
		switch {
		case strings.HasPrefix(attr, "URI="):
			rewritten = append(rewritten, fmt.Sprintf("URI=%q", keyURL(baseURL, mediaID)))
		case strings.HasPrefix(attr, "IV="):
			rewritten = append(rewritten, "IV=0x"+ivHex)
			ivSeen = true
		default:
			rewritten = append(rewritten, attr)
		}
	}
	if !ivSeen && ivHex != "" {
		rewritten = append(rewritten, "IV=0x"+ivHex)
	}

	return prefix + ":" + strings.Join(rewritten, ",")
}

// rewriteSegmentLine maps a segment filename to its API URL. The segment
// number is the trailing numeric run of the basename (segment001 -> 1).
func rewriteSegmentLine(line, mediaID, baseURL string) string {
	name := strings.TrimSpace(line)
	if !strings.HasSuffix(name, ".ts") {
		return line
	}

	base := strings.TrimSuffix(name, ".ts")
	digits := trailingDigits(base)
	if digits == "" {
		return line
	}

	n := 0
	for _, ch := range digits {
		n = n*10 + int(ch-'0')
	}

	return fmt.Sprintf("%s/media/segment/%s/%d", strings.TrimSuffix(baseURL, "/"), mediaID, n)
}

func keyURL(baseURL, mediaID string) string {
	return fmt.Sprintf("%s/media/keys/%s", strings.TrimSuffix(baseURL, "/"), mediaID)
}

// trailingDigits returns the numeric run at the end of s
func trailingDigits(s string) string {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[i:]
}

// splitAttributes splits an attribute list on commas outside quotes
func splitAttributes(s string) []string {
	var attrs []string
	var b strings.Builder
	inQuotes := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			b.WriteByte(c)
		case c == ',' && !inQuotes:
			attrs = append(attrs, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	if b.Len() > 0 {
		attrs = append(attrs, b.String())
	}
	return attrs
}
