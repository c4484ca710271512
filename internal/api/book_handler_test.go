package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/recite-api/internal/domain"
	"github.com/phrazzld/recite-api/internal/service"
	"github.com/phrazzld/recite-api/internal/store"
)

// stubBookService implements service.BookService with canned responses.
type stubBookService struct {
	saveBook  *domain.Book
	saveErr   error
	getBook   *domain.Book
	getErr    error
	summaries []store.BookSummary
	listErr   error
	all       []*domain.Book
	allErr    error
}

func (s *stubBookService) SaveBook(context.Context, string, []domain.Chapter) (*domain.Book, error) {
	return s.saveBook, s.saveErr
}

func (s *stubBookService) GetBook(context.Context, string) (*domain.Book, error) {
	return s.getBook, s.getErr
}

func (s *stubBookService) ListBooks(context.Context) ([]store.BookSummary, error) {
	return s.summaries, s.listErr
}

func (s *stubBookService) AllChapters(context.Context) ([]*domain.Book, error) {
	return s.all, s.allErr
}

func TestSaveBookHandler(t *testing.T) {
	t.Parallel()

	t.Run("book saved", func(t *testing.T) {
		t.Parallel()
		svc := &stubBookService{saveBook: &domain.Book{Name: "Meditations"}}
		h := NewBookHandler(svc, slog.Default())

		body := `{"bookName":"Meditations","chapters":[{"Title":"Book One","Content":"alpha"}]}`
		w := postJSON(t, h.SaveBook, body)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		decodeBody(t, w, &resp)
		assert.Equal(t, true, resp["success"])
		assert.Contains(t, resp["message"], "Meditations")
	})

	t.Run("missing chapters", func(t *testing.T) {
		t.Parallel()
		h := NewBookHandler(&stubBookService{}, slog.Default())

		w := postJSON(t, h.SaveBook, `{"bookName":"Meditations"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation error from service", func(t *testing.T) {
		t.Parallel()
		svc := &stubBookService{saveErr: service.ErrValidation}
		h := NewBookHandler(svc, slog.Default())

		body := `{"bookName":"Meditations","chapters":[{"Title":"Book One","Content":""}]}`
		w := postJSON(t, h.SaveBook, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetBookHandler(t *testing.T) {
	t.Parallel()

	getWithName := func(t *testing.T, h *BookHandler, name string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/books/"+name, nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("name", name)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		w := httptest.NewRecorder()
		h.GetBook(w, req)
		return w
	}

	t.Run("book found", func(t *testing.T) {
		t.Parallel()
		svc := &stubBookService{getBook: &domain.Book{
			Name:     "Meditations",
			Chapters: []domain.Chapter{{Title: "Book One", Content: "alpha"}},
		}}
		h := NewBookHandler(svc, slog.Default())

		w := getWithName(t, h, "Meditations")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Name    string           `json:"name"`
			Content []domain.Chapter `json:"content"`
		}
		decodeBody(t, w, &resp)
		assert.Equal(t, "Meditations", resp.Name)
		require.Len(t, resp.Content, 1)
		assert.Equal(t, "alpha", resp.Content[0].Content)
	})

	t.Run("book missing", func(t *testing.T) {
		t.Parallel()
		svc := &stubBookService{getErr: service.ErrBookNotFound}
		h := NewBookHandler(svc, slog.Default())

		w := getWithName(t, h, "Unknown")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListBooksHandler(t *testing.T) {
	t.Parallel()

	svc := &stubBookService{summaries: []store.BookSummary{
		{Name: "Meditations", Chapters: 12, Modified: "2026-08-31T10:00:00Z"},
	}}
	h := NewBookHandler(svc, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ListBooks(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []store.BookSummary
	decodeBody(t, w, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, 12, resp[0].Chapters)
}

func TestListAllChaptersHandler(t *testing.T) {
	t.Parallel()

	svc := &stubBookService{all: []*domain.Book{
		{
			Name:     "Meditations",
			Chapters: []domain.Chapter{{Title: "Book One", Content: "alpha"}},
		},
	}}
	h := NewBookHandler(svc, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ListAllChapters(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []struct {
		BookName string           `json:"book_name"`
		Chapters []domain.Chapter `json:"chapters"`
	}
	decodeBody(t, w, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, "Meditations", resp[0].BookName)
	require.Len(t, resp[0].Chapters, 1)
}

func TestProcessTextHandler(t *testing.T) {
	t.Parallel()

	t.Run("splitter not configured", func(t *testing.T) {
		t.Parallel()
		h := NewProcessHandler(nil, slog.Default())

		w := postJSON(t, h.ProcessText, `{"text":"some study text"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		h := NewProcessHandler(splitterFunc(func(context.Context, string) ([]domain.Chapter, error) {
			t.Fatal("splitter must not be called for empty text")
			return nil, nil
		}), slog.Default())

		w := postJSON(t, h.ProcessText, `{"text":"   "}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("chapters returned", func(t *testing.T) {
		t.Parallel()
		h := NewProcessHandler(splitterFunc(func(context.Context, string) ([]domain.Chapter, error) {
			return []domain.Chapter{{Title: "Book One", Content: "alpha"}}, nil
		}), slog.Default())

		w := postJSON(t, h.ProcessText, `{"text":"some study text"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp []domain.Chapter
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, "Book One", resp[0].Title)
	})
}

// splitterFunc adapts a function to the generation.ChapterSplitter interface.
type splitterFunc func(ctx context.Context, text string) ([]domain.Chapter, error)

func (f splitterFunc) SplitChapters(ctx context.Context, text string) ([]domain.Chapter, error) {
	return f(ctx, text)
}
