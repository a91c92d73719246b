package repository

import (
	"context"

	"github.com/Astemirdum/library-management/library/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	ListBooks(ctx context.Context, query model.ListBooksQuery) ([]model.Book, error)
	GetBook(ctx context.Context, id string) (model.Book, error)
	UpdateBook(ctx context.Context, id string, patch model.BookPatch) (model.Book, error)
	DeleteBook(ctx context.Context, id string) error
	// ReserveCopies takes quantity copies off the book in a single conditional
	// write. It fails with *errs.InsufficientCopiesError when fewer are left.
	ReserveCopies(ctx context.Context, id string, quantity int) (model.Book, error)
	// ReleaseCopies gives quantity copies back to the book.
	ReleaseCopies(ctx context.Context, id string, quantity int) error
	CreateBorrow(ctx context.Context, borrow model.Borrow) (model.Borrow, error)
	BorrowSummary(ctx context.Context) ([]model.BorrowSummary, error)
}

const (
	booksCollection   = "books"
	borrowsCollection = "borrows"
)

// Every backend hands out ObjectID hex ids so the API contract does not depend on the store.
func newID() string {
	return primitive.NewObjectID().Hex()
}

func validID(id string) bool {
	return primitive.IsValidObjectID(id)
}
