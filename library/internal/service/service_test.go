package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/Astemirdum/library-management/library/internal/repository"
	"github.com/Astemirdum/library-management/library/internal/service"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	repo_mocks "github.com/Astemirdum/library-management/library/internal/repository/mocks"
)

type recordedEvent struct {
	key   string
	event model.BorrowEvent
}

type recorder struct {
	events []recordedEvent
	err    error
}

func (r *recorder) Enqueue(key string, v any) error {
	r.events = append(r.events, recordedEvent{key: key, event: v.(model.BorrowEvent)})
	return r.err
}

func seedBook(t *testing.T, repo repository.Repository, copies int) model.Book {
	t.Helper()
	book, err := repo.CreateBook(context.Background(), model.Book{
		Title:     "Dune",
		Author:    "Frank Herbert",
		Genre:     model.GenreFiction,
		ISBN:      "9780441172719",
		Copies:    copies,
		Available: true,
	})
	require.NoError(t, err)
	return book
}

func TestService_BorrowBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	due := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		repo := repository.NewMemoryRepository(zap.NewNop())
		events := &recorder{}
		svc := service.NewService(repo, events, zap.NewNop())
		book := seedBook(t, repo, 3)

		borrow, err := svc.BorrowBook(ctx, model.CreateBorrow{BookID: book.ID, Quantity: 3, DueDate: due})
		require.NoError(t, err)
		require.Equal(t, book.ID, borrow.Book)
		require.Equal(t, 3, borrow.Quantity)
		require.Equal(t, due, borrow.DueDate)

		got, err := svc.GetBook(ctx, book.ID)
		require.NoError(t, err)
		require.Equal(t, 0, got.Copies)
		require.False(t, got.Available)

		require.Len(t, events.events, 1)
		require.Equal(t, book.ID, events.events[0].key)
		require.Equal(t, model.EventBookBorrowed, events.events[0].event.Type)
		require.Equal(t, borrow.ID, events.events[0].event.BorrowID)
	})

	t.Run("insufficient copies mutates nothing", func(t *testing.T) {
		t.Parallel()
		repo := repository.NewMemoryRepository(zap.NewNop())
		events := &recorder{}
		svc := service.NewService(repo, events, zap.NewNop())
		book := seedBook(t, repo, 2)

		_, err := svc.BorrowBook(ctx, model.CreateBorrow{BookID: book.ID, Quantity: 5, DueDate: due})
		require.EqualError(t, err, "Not enough copies available. Only 2 left.")

		got, err := svc.GetBook(ctx, book.ID)
		require.NoError(t, err)
		require.Equal(t, book, got)
		summary, err := svc.BorrowSummary(ctx)
		require.NoError(t, err)
		require.Empty(t, summary)
		require.Empty(t, events.events)
	})

	t.Run("unknown book", func(t *testing.T) {
		t.Parallel()
		repo := repository.NewMemoryRepository(zap.NewNop())
		svc := service.NewService(repo, nil, zap.NewNop())

		_, err := svc.BorrowBook(ctx, model.CreateBorrow{BookID: "65a1f0c2e4b0a1b2c3d4e5f6", Quantity: 1, DueDate: due})
		require.ErrorIs(t, err, errs.ErrNotFound)

		summary, err := svc.BorrowSummary(ctx)
		require.NoError(t, err)
		require.Empty(t, summary)
	})

	t.Run("event failure does not fail the borrow", func(t *testing.T) {
		t.Parallel()
		repo := repository.NewMemoryRepository(zap.NewNop())
		events := &recorder{err: errors.New("broker down")}
		svc := service.NewService(repo, events, zap.NewNop())
		book := seedBook(t, repo, 1)

		_, err := svc.BorrowBook(ctx, model.CreateBorrow{BookID: book.ID, Quantity: 1, DueDate: due})
		require.NoError(t, err)
		require.Len(t, events.events, 1)
	})
}

func TestService_BorrowBookCompensation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	req := model.CreateBorrow{BookID: "65a1f0c2e4b0a1b2c3d4e5f6", Quantity: 2, DueDate: time.Now().UTC()}

	type mockBehavior func(r *repo_mocks.MockRepository)
	tests := []struct {
		name         string
		mockBehavior mockBehavior
	}{
		{
			name: "copies released",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				gomock.InOrder(
					r.EXPECT().ReserveCopies(gomock.Any(), req.BookID, req.Quantity).Return(model.Book{}, nil),
					r.EXPECT().CreateBorrow(gomock.Any(), gomock.Any()).Return(model.Borrow{}, errors.New("write failed")),
					r.EXPECT().ReleaseCopies(gomock.Any(), req.BookID, req.Quantity).Return(nil),
				)
			},
		},
		{
			name: "release fails too",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				gomock.InOrder(
					r.EXPECT().ReserveCopies(gomock.Any(), req.BookID, req.Quantity).Return(model.Book{}, nil),
					r.EXPECT().CreateBorrow(gomock.Any(), gomock.Any()).Return(model.Borrow{}, errors.New("write failed")),
					r.EXPECT().ReleaseCopies(gomock.Any(), req.BookID, req.Quantity).Return(errors.New("still down")),
				)
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			repo := repo_mocks.NewMockRepository(c)
			events := &recorder{}
			tt.mockBehavior(repo)

			svc := service.NewService(repo, events, zap.NewNop())
			_, err := svc.BorrowBook(ctx, req)
			require.ErrorContains(t, err, "write failed")
			require.Empty(t, events.events)
		})
	}
}

func TestService_BorrowSummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repository.NewMemoryRepository(zap.NewNop())
	svc := service.NewService(repo, nil, zap.NewNop())

	b1 := seedBook(t, repo, 10)
	b2, err := repo.CreateBook(ctx, model.Book{
		Title: "Cosmos", Author: "Carl Sagan", Genre: model.GenreScience,
		ISBN: "9780345539434", Copies: 10, Available: true,
	})
	require.NoError(t, err)

	due := time.Now().Add(time.Hour)
	for _, req := range []model.CreateBorrow{
		{BookID: b1.ID, Quantity: 2, DueDate: due},
		{BookID: b1.ID, Quantity: 3, DueDate: due},
		{BookID: b2.ID, Quantity: 5, DueDate: due},
	} {
		_, err := svc.BorrowBook(ctx, req)
		require.NoError(t, err)
	}

	summary, err := svc.BorrowSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, []model.BorrowSummary{
		{Book: model.SummaryBook{Title: "Dune", ISBN: "9780441172719"}, TotalQuantity: 5},
		{Book: model.SummaryBook{Title: "Cosmos", ISBN: "9780345539434"}, TotalQuantity: 5},
	}, summary)
}
