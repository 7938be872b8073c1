// Package models holds articles published on the public portal.
package models

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	dErrors "metrologi/pkg/domain-errors"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) IsValid() bool {
	return s == StatusDraft || s == StatusPublished
}

// WordsPerMinute is the reading speed behind ReadingMinutes.
const WordsPerMinute = 200

// Article is one news or education piece.
//
// Invariants:
//   - PublishedAt is set iff Status == published
//   - Slug is unique and derived from the title at creation
type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"judul"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"ringkasan"`
	Content     string     `json:"konten"`
	ImageURL    *string    `json:"gambar,omitempty"`
	Author      string     `json:"penulis"`
	Status      Status     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CanPublish checks that the article may go live.
func (a *Article) CanPublish() error {
	if a.Status == StatusPublished {
		return dErrors.New(dErrors.CodeConflict, "article is already published")
	}
	if strings.TrimSpace(a.Content) == "" {
		return dErrors.New(dErrors.CodeValidation, "cannot publish an article without content")
	}
	return nil
}

// ApplyPublish marks the article published at now.
// Must only be called after CanPublish returns nil.
func (a *Article) ApplyPublish(now time.Time) {
	a.Status = StatusPublished
	a.PublishedAt = &now
	a.UpdatedAt = now
}

func (a *Article) CanUnpublish() error {
	if a.Status != StatusPublished {
		return dErrors.New(dErrors.CodeConflict, "article is not published")
	}
	return nil
}

func (a *Article) ApplyUnpublish(now time.Time) {
	a.Status = StatusDraft
	a.PublishedAt = nil
	a.UpdatedAt = now
}

func (a Article) Clone() Article {
	out := a
	if a.ImageURL != nil {
		v := *a.ImageURL
		out.ImageURL = &v
	}
	if a.PublishedAt != nil {
		t := *a.PublishedAt
		out.PublishedAt = &t
	}
	return out
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// PlainText strips HTML tags from content.
func PlainText(content string) string {
	return tagPattern.ReplaceAllString(content, " ")
}

// WordCount counts whitespace-separated words after stripping tags.
func WordCount(content string) int {
	return len(strings.Fields(PlainText(content)))
}

// ReadingMinutes is ceil(words / WordsPerMinute). Empty content reads in zero minutes.
func ReadingMinutes(content string) int {
	words := WordCount(content)
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / WordsPerMinute))
}

// Slugify lowercases title and joins its alphanumeric runs with hyphens.
func Slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	if b.Len() == 0 {
		return "artikel"
	}
	return b.String()
}

// Summary is the public card shown on the landing page.
type Summary struct {
	ID             int64      `json:"id"`
	Title          string     `json:"judul"`
	Slug           string     `json:"slug"`
	Excerpt        string     `json:"ringkasan"`
	ImageURL       *string    `json:"gambar,omitempty"`
	Author         string     `json:"penulis"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	ReadingMinutes int        `json:"reading_minutes"`
}

func (a *Article) Summary() Summary {
	return Summary{
		ID:             a.ID,
		Title:          a.Title,
		Slug:           a.Slug,
		Excerpt:        a.Excerpt,
		ImageURL:       a.ImageURL,
		Author:         a.Author,
		PublishedAt:    a.PublishedAt,
		ReadingMinutes: ReadingMinutes(a.Content),
	}
}

// Detail is a published article with its reading time.
type Detail struct {
	Article
	ReadingMinutes int `json:"reading_minutes"`
}
