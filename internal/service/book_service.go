package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/recite-api/internal/domain"
	"github.com/phrazzld/recite-api/internal/store"
)

// BookService exposes the book content use cases to the delivery layer.
type BookService interface {
	// SaveBook stores a book, replacing any existing book with the same
	// name. Returns ErrValidation for a missing name or empty/invalid
	// chapter data.
	SaveBook(ctx context.Context, name string, chapters []domain.Chapter) (*domain.Book, error)

	// GetBook returns the named book with its chapters, or ErrBookNotFound.
	GetBook(ctx context.Context, name string) (*domain.Book, error)

	// ListBooks returns summaries of all stored books, newest first.
	ListBooks(ctx context.Context) ([]store.BookSummary, error)

	// AllChapters returns every stored book with its chapters, for the
	// chapter-picking view. Books without valid chapters are omitted.
	AllChapters(ctx context.Context) ([]*domain.Book, error)
}

type bookService struct {
	books  store.BookStore
	logger *slog.Logger
}

// NewBookService creates a BookService backed by the given store.
func NewBookService(books store.BookStore, logger *slog.Logger) BookService {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for BookService")
	}

	return &bookService{
		books:  books,
		logger: logger.With(slog.String("component", "book_service")),
	}
}

func (s *bookService) SaveBook(
	ctx context.Context,
	name string,
	chapters []domain.Chapter,
) (*domain.Book, error) {
	book, err := domain.NewBook(name, chapters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.books.Save(ctx, book); err != nil {
		if errors.Is(err, store.ErrInvalidEntity) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, fmt.Errorf("failed to save book: %w", err)
	}

	s.logger.InfoContext(ctx, "book saved",
		slog.String("book", book.Name),
		slog.Int("chapters", len(book.Chapters)))
	return book, nil
}

func (s *bookService) GetBook(ctx context.Context, name string) (*domain.Book, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: book name is required", ErrValidation)
	}

	book, err := s.books.GetByName(ctx, name)
	if errors.Is(err, store.ErrBookNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	return book, nil
}

func (s *bookService) ListBooks(ctx context.Context) ([]store.BookSummary, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

func (s *bookService) AllChapters(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.books.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}

	valid := make([]*domain.Book, 0, len(books))
	for _, b := range books {
		if len(b.Chapters) > 0 {
			valid = append(valid, b)
		}
	}
	return valid, nil
}
