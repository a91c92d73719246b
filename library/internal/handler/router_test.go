package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Astemirdum/library-management/library/internal/handler"
	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/Astemirdum/library-management/library/internal/repository"
	"github.com/Astemirdum/library-management/library/internal/service"
	"github.com/Astemirdum/library-management/pkg/validate"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool                      `json:"success"`
	Message string                    `json:"message"`
	Count   *int                      `json:"count"`
	Data    json.RawMessage           `json:"data"`
	Error   *validate.ValidationError `json:"error"`
}

type api struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) *api {
	t.Helper()
	log := zap.NewNop()
	svc := service.NewService(repository.NewMemoryRepository(log), nil, log)
	return &api{t: t, e: handler.New(svc, svc, log).NewRouter()}
}

func (a *api) do(method, target, body string) (int, envelope) {
	a.t.Helper()
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w := httptest.NewRecorder()
	a.e.ServeHTTP(w, r)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (a *api) createBook(title, isbn, genre string, copies int) model.Book {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/books", fmt.Sprintf(
		`{"title":%q,"author":"Someone","genre":%q,"isbn":%q,"copies":%d}`, title, genre, isbn, copies))
	require.Equal(a.t, http.StatusCreated, code, env.Message)
	var b model.Book
	require.NoError(a.t, json.Unmarshal(env.Data, &b))
	return b
}

func (a *api) getBook(id string) model.Book {
	a.t.Helper()
	code, env := a.do(http.MethodGet, "/api/books/"+id, "")
	require.Equal(a.t, http.StatusOK, code)
	var b model.Book
	require.NoError(a.t, json.Unmarshal(env.Data, &b))
	return b
}

func TestRouter_CreateAndGetBook(t *testing.T) {
	t.Parallel()
	a := newAPI(t)

	created := a.createBook("Cosmos", "9780345539434", "SCIENCE", 3)
	require.Equal(t, model.GenreScience, created.Genre)
	require.Equal(t, 3, created.Copies)
	require.True(t, created.Available)
	require.Len(t, created.ID, 24)

	got := a.getBook(created.ID)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, created.Title, got.Title)

	upper := a.getBook(strings.ToUpper(created.ID))
	require.Equal(t, created.ID, upper.ID)

	code, env := a.do(http.MethodGet, "/api/books/not-an-id", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Book not found", env.Message)
	require.False(t, env.Success)
}

func TestRouter_CreateBookValidation(t *testing.T) {
	t.Parallel()
	a := newAPI(t)

	code, env := a.do(http.MethodPost, "/api/books", `{"title":"  ","author":"A","genre":"science","isbn":"123","copies":-2}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "Validation failed", env.Message)
	require.NotNil(t, env.Error)

	fields := make(map[string]bool)
	for _, fe := range env.Error.Errors {
		fields[fe.Field] = true
	}
	require.Equal(t, map[string]bool{"title": true, "genre": true, "isbn": true, "copies": true}, fields)

	code, _ = a.do(http.MethodGet, "/api/books", "")
	require.Equal(t, http.StatusNotFound, code)
}

func TestRouter_DuplicateISBN(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	a.createBook("Dune", "9780441172719", "FICTION", 1)

	code, env := a.do(http.MethodPost, "/api/books",
		`{"title":"Other","author":"B","genre":"FICTION","isbn":"9780441172719","copies":1}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, []validate.FieldError{{Field: "isbn", Message: "isbn already exists"}}, env.Error.Errors)

	code, env = a.do(http.MethodGet, "/api/books", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, *env.Count)
}

func TestRouter_ListBooks(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	a.createBook("Dune", "9780441172719", "FICTION", 1)
	a.createBook("Cosmos", "9780345539434", "SCIENCE", 2)
	a.createBook("Brief History", "9780553380163", "SCIENCE", 9)

	code, env := a.do(http.MethodGet, "/api/books?filter=SCIENCE&sortBy=copies&sort=desc&limit=1", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, *env.Count)
	var books []model.Book
	require.NoError(t, json.Unmarshal(env.Data, &books))
	require.Len(t, books, 1)
	require.Equal(t, "Brief History", books[0].Title)

	code, env = a.do(http.MethodGet, "/api/books?filter=HISTORY", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "No books found", env.Message)
}

func TestRouter_UpdateBook(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	created := a.createBook("Dune", "9780441172719", "FICTION", 4)

	code, env := a.do(http.MethodPatch, "/api/books/"+created.ID, `{"copies":7}`)
	require.Equal(t, http.StatusOK, code)
	var updated model.Book
	require.NoError(t, json.Unmarshal(env.Data, &updated))

	require.Equal(t, 7, updated.Copies)
	require.Equal(t, created.Title, updated.Title)
	require.Equal(t, created.ISBN, updated.ISBN)
	require.Equal(t, created.Available, updated.Available)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	code, env = a.do(http.MethodPatch, "/api/books/"+created.ID, `{"copies":-1}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "copies", env.Error.Errors[0].Field)

	code, env = a.do(http.MethodPatch, "/api/books/"+created.ID, `{"copies":null}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "expected integer, received null", env.Error.Errors[0].Message)
	require.Equal(t, 7, a.getBook(created.ID).Copies)

	code, env = a.do(http.MethodPatch, "/api/books/"+strings.ToUpper(created.ID), `{"copies":2}`)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, _ = a.do(http.MethodPatch, "/api/books/65a1f0c2e4b0a1b2c3d4e5f6", `{"copies":1}`)
	require.Equal(t, http.StatusNotFound, code)
}

func TestRouter_DeleteBookTwice(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	created := a.createBook("Dune", "9780441172719", "FICTION", 4)

	code, env := a.do(http.MethodDelete, "/api/books/"+created.ID, "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "null", string(env.Data))

	code, env = a.do(http.MethodDelete, "/api/books/"+created.ID, "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Book not found", env.Message)
}

func TestRouter_Borrow(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	b1 := a.createBook("Dune", "9780441172719", "FICTION", 5)
	b2 := a.createBook("Cosmos", "9780345539434", "SCIENCE", 5)

	code, env := a.do(http.MethodGet, "/api/borrow", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "No borrowed books found", env.Message)

	borrow := func(id string, quantity int) (int, envelope) {
		return a.do(http.MethodPost, "/api/borrow",
			fmt.Sprintf(`{"book":%q,"quantity":%d,"dueDate":"2030-06-01T00:00:00Z"}`, id, quantity))
	}

	code, env = borrow(b1.ID, 2)
	require.Equal(t, http.StatusCreated, code)
	var created model.Borrow
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, b1.ID, created.Book)
	require.Equal(t, 2, created.Quantity)

	code, _ = borrow(b1.ID, 3)
	require.Equal(t, http.StatusCreated, code)
	after := a.getBook(b1.ID)
	require.Equal(t, 0, after.Copies)
	require.False(t, after.Available)

	code, env = borrow(b1.ID, 1)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "Not enough copies available. Only 0 left.", env.Message)

	code, _ = borrow(b2.ID, 5)
	require.Equal(t, http.StatusCreated, code)

	code, env = borrow(b2.ID, 0)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "quantity", env.Error.Errors[0].Field)

	code, env = borrow("65a1f0c2e4b0a1b2c3d4e5f6", 1)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Book not found", env.Message)

	code, env = a.do(http.MethodGet, "/api/borrow", "")
	require.Equal(t, http.StatusOK, code)
	var summary []model.BorrowSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	require.Equal(t, []model.BorrowSummary{
		{Book: model.SummaryBook{Title: "Dune", ISBN: "9780441172719"}, TotalQuantity: 5},
		{Book: model.SummaryBook{Title: "Cosmos", ISBN: "9780345539434"}, TotalQuantity: 5},
	}, summary)
}

func TestRouter_BorrowInsufficientLeavesBookUntouched(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	b := a.createBook("Dune", "9780441172719", "FICTION", 2)

	code, env := a.do(http.MethodPost, "/api/borrow",
		fmt.Sprintf(`{"book":%q,"quantity":3,"dueDate":"2030-06-01"}`, b.ID))
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "Not enough copies available. Only 2 left.", env.Message)
	require.Equal(t, b, a.getBook(b.ID))

	code, _ = a.do(http.MethodGet, "/api/borrow", "")
	require.Equal(t, http.StatusNotFound, code)
}

func TestRouter_BorrowDueDateFormats(t *testing.T) {
	t.Parallel()
	a := newAPI(t)
	created := a.createBook("Dune", "9780441172719", "FICTION", 10)

	for _, due := range []string{
		"2025-07-01 10:00:00",
		"2025-7-1",
		"07/01/2025",
		"2025-07-01T10:00:00+0200",
	} {
		code, env := a.do(http.MethodPost, "/api/borrow", fmt.Sprintf(
			`{"book":%q,"quantity":1,"dueDate":%q}`, created.ID, due))
		require.Equal(t, http.StatusCreated, code, "%s: %s", due, env.Message)
	}
	require.Equal(t, 6, a.getBook(created.ID).Copies)
}

func TestRouter_BodyLimit(t *testing.T) {
	t.Parallel()
	a := newAPI(t)

	body := `{"title":"` + strings.Repeat("x", 2<<20) + `"}`
	code, env := a.do(http.MethodPost, "/api/books", body)
	require.Equal(t, http.StatusRequestEntityTooLarge, code)
	require.False(t, env.Success)
}
