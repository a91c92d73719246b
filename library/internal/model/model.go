package model

import (
	"time"
)

type Genre string

const (
	GenreFiction    Genre = "FICTION"
	GenreNonFiction Genre = "NON_FICTION"
	GenreScience    Genre = "SCIENCE"
	GenreHistory    Genre = "HISTORY"
	GenreBiography  Genre = "BIOGRAPHY"
	GenreFantasy    Genre = "FANTASY"
)

var Genres = []Genre{
	GenreFiction,
	GenreNonFiction,
	GenreScience,
	GenreHistory,
	GenreBiography,
	GenreFantasy,
}

type Book struct {
	ID          string    `json:"_id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Author      string    `json:"author" db:"author"`
	Genre       Genre     `json:"genre" db:"genre"`
	ISBN        string    `json:"isbn" db:"isbn"`
	Description string    `json:"description,omitempty" db:"description"`
	Copies      int       `json:"copies" db:"copies"`
	Available   bool      `json:"available" db:"available"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// BookPatch holds the fields of a partial update; nil means unchanged.
type BookPatch struct {
	Title       *string
	Author      *string
	Genre       *Genre
	ISBN        *string
	Description *string
	Copies      *int
	Available   *bool
}

// Apply returns b with every non-nil patch field replaced.
func (p BookPatch) Apply(b Book) Book {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.ISBN != nil {
		b.ISBN = *p.ISBN
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Copies != nil {
		b.Copies = *p.Copies
	}
	if p.Available != nil {
		b.Available = *p.Available
	}
	return b
}

// UpdateAvailability takes quantity copies off the book. Copies never go
// below zero and the book becomes unavailable once none are left.
func UpdateAvailability(b Book, quantity int) Book {
	b.Copies -= quantity
	if b.Copies <= 0 {
		b.Copies = 0
		b.Available = false
	}
	return b
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	DefaultSortBy    = "createdAt"
	DefaultListLimit = 10
)

type ListBooksQuery struct {
	Genre  string
	SortBy string
	Order  SortOrder
	Limit  int
}

type Borrow struct {
	ID        string    `json:"_id" db:"id"`
	Book      string    `json:"book" db:"book_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	DueDate   time.Time `json:"dueDate" db:"due_date"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type CreateBorrow struct {
	BookID   string
	Quantity int
	DueDate  time.Time
}

type BorrowSummary struct {
	Book          SummaryBook `json:"book"`
	TotalQuantity int         `json:"totalQuantity"`
}

type SummaryBook struct {
	Title string `json:"title"`
	ISBN  string `json:"isbn"`
}

type EventType string

const EventBookBorrowed EventType = "BOOK_BORROWED"

type BorrowEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	BorrowID  string    `json:"borrowId"`
	BookID    string    `json:"bookId"`
	Quantity  int       `json:"quantity"`
	DueDate   time.Time `json:"dueDate"`
	Timestamp time.Time `json:"timestamp"`
}

// SortableBookFields maps the sortBy names accepted by the list endpoint to table columns.
var SortableBookFields = map[string]string{
	"_id":         "id",
	"title":       "title",
	"author":      "author",
	"genre":       "genre",
	"isbn":        "isbn",
	"description": "description",
	"copies":      "copies",
	"available":   "available",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}
