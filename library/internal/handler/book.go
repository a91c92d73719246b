package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/schema"
	"github.com/Astemirdum/library-management/pkg/validate"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// bookID returns the path id in the canonical lower-case hex form.
func bookID(c echo.Context) string {
	return strings.ToLower(c.Param("bookId"))
}

var errDuplicateISBN = validate.NewValidationError(validate.FieldError{
	Field:   "isbn",
	Message: "isbn already exists",
})

// CreateBook godoc
// @Summary      Create a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        book body model.Book true "book"
// @Success      201 {object} dataResponse
// @Failure      400 {object} errorResponse
// @Router       /api/books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	book, err := schema.ParseCreateBook(c.Echo().Validator, body)
	if err != nil {
		return err
	}

	created, err := h.bookSvc.CreateBook(c.Request().Context(), book)
	if err != nil {
		if errors.Is(err, errs.ErrDuplicateISBN) {
			return errDuplicateISBN
		}
		return err
	}
	return ok(c, http.StatusCreated, "Book created successfully", created)
}

// ListBooks godoc
// @Summary      List books
// @Tags         books
// @Produce      json
// @Param        filter query string false "genre"
// @Param        sortBy query string false "field to sort by" default(createdAt)
// @Param        sort   query string false "asc or desc" default(asc)
// @Param        limit  query int    false "max results" default(10)
// @Success      200 {object} dataResponse
// @Failure      404 {object} errorResponse
// @Router       /api/books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	query := schema.ParseListBooks(c.QueryParams())
	books, err := h.bookSvc.ListBooks(c.Request().Context(), query)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No books found")
	}
	return okList(c, "Books retrieved successfully", books, len(books))
}

// GetBook godoc
// @Summary      Get a book
// @Tags         books
// @Produce      json
// @Param        bookId path string true "book id"
// @Success      200 {object} dataResponse
// @Failure      404 {object} errorResponse
// @Router       /api/books/{bookId} [get]
func (h *Handler) GetBook(c echo.Context) error {
	book, err := h.bookSvc.GetBook(c.Request().Context(), bookID(c))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, msgBookNotFound)
		}
		return err
	}
	return ok(c, http.StatusOK, "Book retrieved successfully", book)
}

// UpdateBook godoc
// @Summary      Update a book
// @Description  Only the supplied fields change. available is taken as given.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        bookId path string true "book id"
// @Param        book body model.Book true "fields to change"
// @Success      200 {object} dataResponse
// @Failure      400 {object} errorResponse
// @Failure      404 {object} errorResponse
// @Router       /api/books/{bookId} [patch]
func (h *Handler) UpdateBook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	patch, err := schema.ParseUpdateBook(c.Echo().Validator, body)
	if err != nil {
		return err
	}

	updated, err := h.bookSvc.UpdateBook(c.Request().Context(), bookID(c), patch)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, msgBookNotFound)
		case errors.Is(err, errs.ErrDuplicateISBN):
			return errDuplicateISBN
		}
		return err
	}
	return ok(c, http.StatusOK, "Book updated successfully", updated)
}

// DeleteBook godoc
// @Summary      Delete a book
// @Tags         books
// @Produce      json
// @Param        bookId path string true "book id"
// @Success      200 {object} dataResponse
// @Failure      404 {object} errorResponse
// @Router       /api/books/{bookId} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	if err := h.bookSvc.DeleteBook(c.Request().Context(), bookID(c)); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, msgBookNotFound)
		}
		return err
	}
	return ok(c, http.StatusOK, "Book deleted successfully", nil)
}
