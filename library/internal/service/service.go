package service

import (
	"context"
	"time"

	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/Astemirdum/library-management/library/internal/repository"
	"github.com/Astemirdum/library-management/pkg/kafka"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Service struct {
	log    *zap.Logger
	repo   repository.Repository
	events kafka.Enqueuer
}

func NewService(repo repository.Repository, events kafka.Enqueuer, log *zap.Logger) *Service {
	if events == nil {
		events = kafka.NopEnqueuer{}
	}
	return &Service{
		log:    log.Named("service"),
		repo:   repo,
		events: events,
	}
}

func (s *Service) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	return s.repo.CreateBook(ctx, book)
}

func (s *Service) ListBooks(ctx context.Context, query model.ListBooksQuery) ([]model.Book, error) {
	return s.repo.ListBooks(ctx, query)
}

func (s *Service) GetBook(ctx context.Context, id string) (model.Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) UpdateBook(ctx context.Context, id string, patch model.BookPatch) (model.Book, error) {
	return s.repo.UpdateBook(ctx, id, patch)
}

func (s *Service) DeleteBook(ctx context.Context, id string) error {
	return s.repo.DeleteBook(ctx, id)
}

// BorrowBook reserves the copies first and records the borrow second.
// When the borrow cannot be written the reserved copies are given back.
func (s *Service) BorrowBook(ctx context.Context, req model.CreateBorrow) (model.Borrow, error) {
	if _, err := s.repo.ReserveCopies(ctx, req.BookID, req.Quantity); err != nil {
		return model.Borrow{}, err
	}

	borrow, err := s.repo.CreateBorrow(ctx, model.Borrow{
		Book:     req.BookID,
		Quantity: req.Quantity,
		DueDate:  req.DueDate,
	})
	if err != nil {
		if rbErr := s.repo.ReleaseCopies(context.WithoutCancel(ctx), req.BookID, req.Quantity); rbErr != nil {
			s.log.Error("BorrowBook rollback ReleaseCopies",
				zap.String("book", req.BookID), zap.Int("quantity", req.Quantity), zap.Error(rbErr))
		}
		return model.Borrow{}, errors.Wrap(err, "create borrow")
	}

	s.publish(borrow)
	return borrow, nil
}

func (s *Service) publish(borrow model.Borrow) {
	event := model.BorrowEvent{
		ID:        uuid.NewString(),
		Type:      model.EventBookBorrowed,
		BorrowID:  borrow.ID,
		BookID:    borrow.Book,
		Quantity:  borrow.Quantity,
		DueDate:   borrow.DueDate,
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.Enqueue(borrow.Book, event); err != nil {
		s.log.Warn("BorrowBook s.events.Enqueue()", zap.String("borrow", borrow.ID), zap.Error(err))
	}
}

func (s *Service) BorrowSummary(ctx context.Context) ([]model.BorrowSummary, error) {
	return s.repo.BorrowSummary(ctx)
}
