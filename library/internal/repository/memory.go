package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
	"go.uber.org/zap"
)

type memoryRepository struct {
	mu      sync.Mutex
	books   map[string]model.Book
	order   []string
	borrows []model.Borrow
	now     func() time.Time
	log     *zap.Logger
}

func NewMemoryRepository(log *zap.Logger) *memoryRepository {
	return &memoryRepository{
		books: make(map[string]model.Book),
		now:   func() time.Time { return time.Now().UTC() },
		log:   log.Named("repo"),
	}
}

func (r *memoryRepository) CreateBook(_ context.Context, book model.Book) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isbnTaken(book.ISBN, "") {
		return model.Book{}, errs.ErrDuplicateISBN
	}
	book.ID = newID()
	book.CreatedAt = r.now()
	book.UpdatedAt = book.CreatedAt
	r.books[book.ID] = book
	r.order = append(r.order, book.ID)
	return book, nil
}

func (r *memoryRepository) ListBooks(_ context.Context, query model.ListBooksQuery) ([]model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	books := make([]model.Book, 0, len(r.order))
	for _, id := range r.order {
		b := r.books[id]
		if query.Genre != "" && string(b.Genre) != query.Genre {
			continue
		}
		books = append(books, b)
	}
	compare := compareBooks(query.SortBy)
	slices.SortStableFunc(books, func(a, b model.Book) int {
		if query.Order == model.SortDesc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	if query.Limit > 0 && len(books) > query.Limit {
		books = books[:query.Limit]
	}
	return books, nil
}

func (r *memoryRepository) GetBook(_ context.Context, id string) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	return b, nil
}

func (r *memoryRepository) UpdateBook(_ context.Context, id string, patch model.BookPatch) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	if patch.ISBN != nil && r.isbnTaken(*patch.ISBN, id) {
		return model.Book{}, errs.ErrDuplicateISBN
	}
	b = patch.Apply(b)
	b.UpdatedAt = r.now()
	r.books[id] = b
	return b, nil
}

func (r *memoryRepository) DeleteBook(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.books, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return nil
}

func (r *memoryRepository) ReserveCopies(_ context.Context, id string, quantity int) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	if b.Copies < quantity {
		return model.Book{}, &errs.InsufficientCopiesError{Available: b.Copies}
	}
	b = model.UpdateAvailability(b, quantity)
	b.UpdatedAt = r.now()
	r.books[id] = b
	return b, nil
}

func (r *memoryRepository) ReleaseCopies(_ context.Context, id string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return errs.ErrNotFound
	}
	b.Copies += quantity
	if b.Copies > 0 {
		b.Available = true
	}
	b.UpdatedAt = r.now()
	r.books[id] = b
	return nil
}

func (r *memoryRepository) CreateBorrow(_ context.Context, borrow model.Borrow) (model.Borrow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	borrow.ID = newID()
	borrow.CreatedAt = r.now()
	borrow.UpdatedAt = borrow.CreatedAt
	r.borrows = append(r.borrows, borrow)
	return borrow, nil
}

func (r *memoryRepository) BorrowSummary(_ context.Context) ([]model.BorrowSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var bookIDs []string
	totals := make(map[string]int)
	for _, b := range r.borrows {
		if _, ok := totals[b.Book]; !ok {
			bookIDs = append(bookIDs, b.Book)
		}
		totals[b.Book] += b.Quantity
	}

	summary := make([]model.BorrowSummary, 0, len(bookIDs))
	for _, id := range bookIDs {
		book, ok := r.books[id]
		if !ok {
			continue
		}
		summary = append(summary, model.BorrowSummary{
			Book:          model.SummaryBook{Title: book.Title, ISBN: book.ISBN},
			TotalQuantity: totals[id],
		})
	}
	return summary, nil
}

func (r *memoryRepository) isbnTaken(isbn, exceptID string) bool {
	for id, b := range r.books {
		if id != exceptID && b.ISBN == isbn {
			return true
		}
	}
	return false
}

func compareBooks(field string) func(a, b model.Book) int {
	switch field {
	case "_id":
		return func(a, b model.Book) int { return strings.Compare(a.ID, b.ID) }
	case "title":
		return func(a, b model.Book) int { return strings.Compare(a.Title, b.Title) }
	case "author":
		return func(a, b model.Book) int { return strings.Compare(a.Author, b.Author) }
	case "genre":
		return func(a, b model.Book) int { return strings.Compare(string(a.Genre), string(b.Genre)) }
	case "isbn":
		return func(a, b model.Book) int { return strings.Compare(a.ISBN, b.ISBN) }
	case "description":
		return func(a, b model.Book) int { return strings.Compare(a.Description, b.Description) }
	case "copies":
		return func(a, b model.Book) int { return cmp.Compare(a.Copies, b.Copies) }
	case "available":
		return func(a, b model.Book) int { return cmp.Compare(boolRank(a.Available), boolRank(b.Available)) }
	case "updatedAt":
		return func(a, b model.Book) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	}
	return func(a, b model.Book) int { return a.CreatedAt.Compare(b.CreatedAt) }
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
