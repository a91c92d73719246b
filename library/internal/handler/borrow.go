package handler

import (
	"io"
	"net/http"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/schema"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// BorrowBook godoc
// @Summary      Borrow copies of a book
// @Tags         borrow
// @Accept       json
// @Produce      json
// @Param        borrow body model.Borrow true "book, quantity, dueDate"
// @Success      201 {object} dataResponse
// @Failure      400 {object} errorResponse
// @Failure      404 {object} errorResponse
// @Router       /api/borrow [post]
func (h *Handler) BorrowBook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := schema.ParseCreateBorrow(c.Echo().Validator, body)
	if err != nil {
		return err
	}

	borrow, err := h.borrowSvc.BorrowBook(c.Request().Context(), req)
	if err != nil {
		var insufficient *errs.InsufficientCopiesError
		switch {
		case errors.Is(err, errs.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, msgBookNotFound)
		case errors.As(err, &insufficient):
			return echo.NewHTTPError(http.StatusBadRequest, insufficient.Error())
		}
		return err
	}
	return ok(c, http.StatusCreated, "Book borrowed successfully", borrow)
}

// BorrowSummary godoc
// @Summary      Borrowed books summary
// @Tags         borrow
// @Produce      json
// @Success      200 {object} dataResponse
// @Failure      404 {object} errorResponse
// @Router       /api/borrow [get]
func (h *Handler) BorrowSummary(c echo.Context) error {
	summary, err := h.borrowSvc.BorrowSummary(c.Request().Context())
	if err != nil {
		return err
	}
	if len(summary) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No borrowed books found")
	}
	return ok(c, http.StatusOK, "Borrowed books summary retrieved successfully", summary)
}
