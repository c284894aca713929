package forwarder

import (
	"bytes"
	"mime"
	"strings"
	"unicode/utf8"

	nethtml "golang.org/x/net/html"
)

// SummarizeBody turns a response body into a single readable line for logs
// and audit rows. HTML error pages are reduced to their visible text.
func SummarizeBody(contentType string, body []byte, maxChars int) string {
	if len(body) == 0 {
		return ""
	}

	var text string
	if isHTML(contentType, body) {
		text = htmlText(body)
	} else {
		text = string(body)
	}
	text = strings.Join(strings.Fields(text), " ")
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "?")
	}
	return truncate(text, maxChars)
}

func isHTML(contentType string, body []byte) bool {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			return mediaType == "text/html" || mediaType == "application/xhtml+xml"
		}
	}
	head := bytes.ToLower(bytes.TrimSpace(body))
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

func htmlText(body []byte) string {
	tokenizer := nethtml.NewTokenizer(bytes.NewReader(body))
	var b strings.Builder
	skip := 0
	for {
		switch tokenizer.Next() {
		case nethtml.ErrorToken:
			return b.String()
		case nethtml.StartTagToken:
			name, _ := tokenizer.TagName()
			if isHiddenTag(name) {
				skip++
			}
		case nethtml.EndTagToken:
			name, _ := tokenizer.TagName()
			if isHiddenTag(name) && skip > 0 {
				skip--
			}
		case nethtml.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isHiddenTag(name []byte) bool {
	switch string(name) {
	case "script", "style", "head":
		return true
	}
	return false
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars]) + "..."
}
