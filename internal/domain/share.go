package domain

import (
	"regexp"
	"time"
)

// UntitledLink is the placeholder title used when no real title could be found.
// Merge steps treat it the same as an empty title.
const UntitledLink = "Untitled Link"

// Kind is the shape of a shared payload.
type Kind string

const (
	KindText   Kind = "text"
	KindWebURL Kind = "weburl"
	KindImage  Kind = "image"
	KindFile   Kind = "file"
)

// Platform tags the origin of a saved item.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformYouTube   Platform = "youtube"
	PlatformReddit    Platform = "reddit"
	PlatformTikTok    Platform = "tiktok"
	PlatformWeb       Platform = "web"
	PlatformText      Platform = "text"
	PlatformLocalFile Platform = "local_file"
)

var urlPattern = regexp.MustCompile(`(?i)https?://[^\s]+`)

// IsURL reports whether s contains an http(s) URL.
func IsURL(s string) bool {
	return urlPattern.MatchString(s)
}

// FirstURL returns the first http(s) URL found in s, or "" if there is none.
func FirstURL(s string) string {
	return urlPattern.FindString(s)
}

// FileInfo describes a shared file attachment.
type FileInfo struct {
	Locator  string `json:"locator"`
	MimeType string `json:"mime_type,omitempty"`
	Name     string `json:"name,omitempty"`
}

// SharedPayload is the canonical form of one piece of shared content.
// It only lives for the duration of a single pipeline invocation.
type SharedPayload struct {
	Kind     Kind
	RawValue string
	MimeType string

	// Hints holds title/description/image supplied by the sharing app itself.
	Hints *Metadata

	// File is set for image and file payloads.
	File *FileInfo
}

// Metadata is the display information attached to a saved entry.
type Metadata struct {
	Title        string    `json:"title,omitempty"`
	Description  string    `json:"description,omitempty"`
	Image        string    `json:"image,omitempty"`
	Author       string    `json:"author,omitempty"`
	AuthorAvatar string    `json:"author_avatar,omitempty"`
	Subreddit    string    `json:"subreddit,omitempty"`
	IsVideo      bool      `json:"is_video,omitempty"`
	OriginalFile *FileInfo `json:"original_file,omitempty"`

	// Source names the enricher that populated the record.
	Source string `json:"source,omitempty"`
}

// HasTitle reports whether the title holds something other than the placeholder.
func (m Metadata) HasTitle() bool {
	return m.Title != "" && m.Title != UntitledLink
}

// IsEmpty reports whether no field has been set.
func (m Metadata) IsEmpty() bool {
	return m == Metadata{}
}

// FillFrom copies fields from other that are still absent in m.
// A placeholder title counts as absent.
func (m *Metadata) FillFrom(other Metadata) {
	if !m.HasTitle() && other.Title != "" {
		if other.HasTitle() || m.Title == "" {
			m.Title = other.Title
		}
	}
	if m.Description == "" {
		m.Description = other.Description
	}
	if m.Image == "" {
		m.Image = other.Image
	}
	if m.Author == "" {
		m.Author = other.Author
	}
	if m.AuthorAvatar == "" {
		m.AuthorAvatar = other.AuthorAvatar
	}
	if m.Subreddit == "" {
		m.Subreddit = other.Subreddit
	}
	if !m.IsVideo {
		m.IsVideo = other.IsVideo
	}
	if m.OriginalFile == nil {
		m.OriginalFile = other.OriginalFile
	}
	if m.Source == "" {
		m.Source = other.Source
	}
}

// SharedEntry represents one saved item in a user's store.
type SharedEntry struct {
	// ID is assigned by the repository on insert.
	ID string `json:"id"`

	// UserID is the authenticated owner. (UserID, Value) is unique.
	UserID string `json:"user_id"`

	// ContentType mirrors the payload kind.
	ContentType Kind `json:"content_type"`

	// Value is the canonical content: a URL, a text body or a file locator.
	Value string `json:"value"`

	Platform Platform `json:"platform"`

	Metadata Metadata `json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
}

// User is an authenticated identity.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
