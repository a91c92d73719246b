package handler

import (
	"context"

	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/Astemirdum/library-management/library/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	ListBooks(ctx context.Context, query model.ListBooksQuery) ([]model.Book, error)
	GetBook(ctx context.Context, id string) (model.Book, error)
	UpdateBook(ctx context.Context, id string, patch model.BookPatch) (model.Book, error)
	DeleteBook(ctx context.Context, id string) error
}

type BorrowService interface {
	BorrowBook(ctx context.Context, req model.CreateBorrow) (model.Borrow, error)
	BorrowSummary(ctx context.Context) ([]model.BorrowSummary, error)
}

var (
	_ BookService   = (*service.Service)(nil)
	_ BorrowService = (*service.Service)(nil)
)
