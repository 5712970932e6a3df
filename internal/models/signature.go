package models

import "strings"

const rawBase64MinLen = 40

// ResolveSignatureSource picks the displayable image source for a stored
// signature. Priority: persisted file URL, inline data URL, then a raw base64
// payload promoted to a PNG data URL. Returns "" when nothing usable exists.
func ResolveSignatureSource(fileURL, inline string) string {
	if fileURL != "" {
		return fileURL
	}
	if strings.HasPrefix(inline, "data:image") {
		return inline
	}
	if looksLikeBase64(inline) {
		return "data:image/png;base64," + inline
	}
	return ""
}

// SignatureSource resolves a stored signature column value. The column holds
// either a persisted file URL or an inline payload (data URL or raw base64).
func SignatureSource(stored string) string {
	if strings.HasPrefix(stored, "http://") || strings.HasPrefix(stored, "https://") || strings.HasPrefix(stored, "/") {
		return ResolveSignatureSource(stored, "")
	}
	return ResolveSignatureSource("", stored)
}

func looksLikeBase64(s string) bool {
	if len(s) <= rawBase64MinLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '+' || r == '/' || r == '_' || r == '=' || r == '-':
		default:
			return false
		}
	}
	return true
}
