// Package intake turns loosely shaped share intents into canonical payloads.
package intake

import (
	"errors"
	"strings"

	"savesense/internal/domain"
)

// ErrNoContent is returned when an intent carries nothing that can be saved.
var ErrNoContent = errors.New("share intent carries no usable content")

// Intent is one of TextShare, URLShare or FileShare.
type Intent interface {
	isIntent()
}

// TextShare is plain text without a link.
type TextShare struct {
	Text  string
	Hints *domain.Metadata
}

// URLShare is a link, possibly embedded in surrounding text.
type URLShare struct {
	URL   string
	Text  string
	Hints *domain.Metadata
}

// FileShare is a list of file attachments.
type FileShare struct {
	Files []domain.FileInfo
}

func (TextShare) isIntent() {}
func (URLShare) isIntent()  {}
func (FileShare) isIntent() {}

// valueKeys lists the fields probed for the shared value, highest priority first.
var valueKeys = []string{"value", "text", "webUrl", "weburl", "content", "extraText"}

// locatorKeys lists the fields probed for a file locator, highest priority first.
var locatorKeys = []string{"filePath", "path", "contentUri", "uri"}

// ParseIntent rebuilds an Intent from the raw map produced by the share bridge.
func ParseIntent(raw map[string]any) (Intent, error) {
	if raw == nil {
		return nil, ErrNoContent
	}

	if value := probeValue(raw); value != "" {
		hints := parseHints(raw["meta"])
		if u := domain.FirstURL(value); u != "" {
			return URLShare{URL: u, Text: value, Hints: hints}, nil
		}
		return TextShare{Text: value, Hints: hints}, nil
	}

	files := parseFiles(raw["files"])
	if len(files) == 0 {
		return nil, ErrNoContent
	}
	return FileShare{Files: files}, nil
}

// TextIntent builds an intent from a single shared string.
func TextIntent(s string) (Intent, error) {
	return ParseIntent(map[string]any{"text": s})
}

func probeValue(raw map[string]any) string {
	for _, key := range valueKeys {
		if s := stringField(raw, key); s != "" {
			return s
		}
	}
	if urls := stringList(raw["urls"]); len(urls) > 0 {
		return strings.TrimSpace(urls[0])
	}
	return ""
}

func parseHints(v any) *domain.Metadata {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	hints := domain.Metadata{
		Title:       stringField(m, "title"),
		Description: stringField(m, "description"),
		Image:       firstNonEmpty(stringField(m, "image"), stringField(m, "og:image")),
	}
	if hints.IsEmpty() {
		return nil
	}
	return &hints
}

func parseFiles(v any) []domain.FileInfo {
	items, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]map[string]any); ok {
			for _, m := range typed {
				items = append(items, m)
			}
		}
	}

	var files []domain.FileInfo
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var locator string
		for _, key := range locatorKeys {
			if locator = stringField(m, key); locator != "" {
				break
			}
		}
		if locator == "" {
			continue
		}
		files = append(files, domain.FileInfo{
			Locator:  locator,
			MimeType: firstNonEmpty(stringField(m, "mimeType"), stringField(m, "mime_type")),
			Name:     firstNonEmpty(stringField(m, "fileName"), stringField(m, "name")),
		})
	}
	return files
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
