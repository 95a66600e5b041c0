package intake

import (
	"strings"

	"savesense/internal/domain"
)

// Payloads projects an intent into the payloads it should be saved as.
// A file share yields one payload per attachment.
func Payloads(in Intent) []domain.SharedPayload {
	switch v := in.(type) {
	case URLShare:
		return []domain.SharedPayload{{Kind: domain.KindWebURL, RawValue: v.URL, Hints: v.Hints}}
	case TextShare:
		return []domain.SharedPayload{{Kind: domain.KindText, RawValue: v.Text, Hints: v.Hints}}
	case FileShare:
		out := make([]domain.SharedPayload, 0, len(v.Files))
		for i := range v.Files {
			f := v.Files[i]
			out = append(out, domain.SharedPayload{
				Kind:     fileKind(f.MimeType),
				RawValue: f.Locator,
				MimeType: f.MimeType,
				File:     &f,
			})
		}
		return out
	}
	return nil
}

func fileKind(mimeType string) domain.Kind {
	if strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return domain.KindImage
	}
	return domain.KindFile
}
