package domain

import (
	"errors"
	"strings"
	"time"
)

// Book-specific validation errors
var (
	// ErrBookNameEmpty is returned when a book's name is empty.
	ErrBookNameEmpty = errors.New("book name cannot be empty")

	// ErrBookNoChapters is returned when a book is saved without chapters.
	ErrBookNoChapters = errors.New("book must contain at least one chapter")

	// ErrChapterInvalid is returned when a chapter lacks a title or content.
	ErrChapterInvalid = errors.New("chapter must have a title and content")
)

// Chapter is one passage of a book. The field names match the wire format
// produced by the chapter splitter and consumed by the frontend.
type Chapter struct {
	Title   string `json:"Title"`
	Content string `json:"Content"`
}

// Book is a named, ordered collection of chapters. Books are the content
// source the recite list is hydrated from; tracking entries reference them
// by name and are never validated against them at write time.
type Book struct {
	Name      string    `json:"name"`
	Chapters  []Chapter `json:"chapters"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBook creates a book from the given chapters. All chapters must carry
// a title and content.
func NewBook(name string, chapters []Chapter) (*Book, error) {
	book := &Book{
		Name:      strings.TrimSpace(name),
		Chapters:  chapters,
		UpdatedAt: time.Now().UTC(),
	}

	if err := book.Validate(); err != nil {
		return nil, err
	}

	return book, nil
}

// Validate checks the book's name and chapter data.
func (b *Book) Validate() error {
	if b.Name == "" {
		return ErrBookNameEmpty
	}
	if len(b.Chapters) == 0 {
		return ErrBookNoChapters
	}
	for _, ch := range b.Chapters {
		if ch.Title == "" || ch.Content == "" {
			return ErrChapterInvalid
		}
	}
	return nil
}

// FindChapter returns the first chapter with the given title, or false if
// the book has no such chapter.
func (b *Book) FindChapter(title string) (Chapter, bool) {
	for _, ch := range b.Chapters {
		if ch.Title == title {
			return ch, true
		}
	}
	return Chapter{}, false
}
