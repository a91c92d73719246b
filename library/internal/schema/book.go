package schema

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/Astemirdum/library-management/library/internal/model"
)

type createBook struct {
	Title       string      `json:"title" validate:"required"`
	Author      string      `json:"author" validate:"required"`
	Genre       model.Genre `json:"genre" validate:"required,oneof=FICTION NON_FICTION SCIENCE HISTORY BIOGRAPHY FANTASY"`
	ISBN        string      `json:"isbn" validate:"required,isbn"`
	Description *string     `json:"description"`
	Copies      *int        `json:"copies" validate:"required,min=0"`
	Available   *bool       `json:"available"`
}

type updateBook struct {
	Title       *string      `json:"title" validate:"omitnil,min=1"`
	Author      *string      `json:"author" validate:"omitnil,min=1"`
	Genre       *model.Genre `json:"genre" validate:"omitnil,oneof=FICTION NON_FICTION SCIENCE HISTORY BIOGRAPHY FANTASY"`
	ISBN        *string      `json:"isbn" validate:"omitnil,min=1,isbn"`
	Description *string      `json:"description"`
	Copies      *int         `json:"copies" validate:"omitnil,min=0"`
	Available   *bool        `json:"available"`
}

// ParseCreateBook validates a book creation body. Text fields are trimmed
// and available defaults to true.
func ParseCreateBook(v Validator, body []byte) (model.Book, error) {
	var req createBook
	if err := decode(body, &req); err != nil {
		return model.Book{}, err
	}
	trim(&req.Title)
	trim(&req.Author)
	trim(&req.ISBN)
	trim(req.Description)
	if err := v.Validate(req); err != nil {
		return model.Book{}, err
	}

	book := model.Book{
		Title:     req.Title,
		Author:    req.Author,
		Genre:     model.Genre(strings.ToUpper(string(req.Genre))),
		ISBN:      req.ISBN,
		Copies:    *req.Copies,
		Available: true,
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.Available != nil {
		book.Available = *req.Available
	}
	return book, nil
}

// ParseUpdateBook validates a partial update body. Only the supplied fields
// are checked and returned.
func ParseUpdateBook(v Validator, body []byte) (model.BookPatch, error) {
	var req updateBook
	if err := decode(body, &req); err != nil {
		return model.BookPatch{}, err
	}
	trim(req.Title)
	trim(req.Author)
	trim(req.ISBN)
	trim(req.Description)
	if err := merge(v.Validate(req), nullFields(body, req)...); err != nil {
		return model.BookPatch{}, err
	}
	if req.Genre != nil {
		g := model.Genre(strings.ToUpper(string(*req.Genre)))
		req.Genre = &g
	}
	return model.BookPatch{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		ISBN:        req.ISBN,
		Description: req.Description,
		Copies:      req.Copies,
		Available:   req.Available,
	}, nil
}

// ParseListBooks reads the list query parameters, falling back to defaults
// for missing or unusable values.
func ParseListBooks(q url.Values) model.ListBooksQuery {
	query := model.ListBooksQuery{
		Genre:  q.Get("filter"),
		SortBy: q.Get("sortBy"),
		Order:  model.SortAsc,
		Limit:  model.DefaultListLimit,
	}
	if query.SortBy == "id" {
		query.SortBy = "_id"
	}
	if _, ok := model.SortableBookFields[query.SortBy]; !ok {
		query.SortBy = model.DefaultSortBy
	}
	if model.SortOrder(q.Get("sort")) == model.SortDesc {
		query.Order = model.SortDesc
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		query.Limit = limit
	}
	return query
}
