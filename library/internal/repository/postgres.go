package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type postgresRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewPostgresRepository(db *pgxpool.Pool, log *zap.Logger) *postgresRepository {
	return &postgresRepository{
		db:  db,
		log: log.Named("repo"),
	}
}

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var bookColumns = []string{
	"id", "title", "author", "genre", "isbn", "description",
	"copies", "available", "created_at", "updated_at",
}

var borrowColumns = []string{
	"id", "book_id", "quantity", "due_date", "created_at", "updated_at",
}

func returning(cols []string) string {
	return "returning " + strings.Join(cols, ", ")
}

func (r *postgresRepository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Insert(booksCollection).
		Columns("id", "title", "author", "genre", "isbn", "description", "copies", "available").
		Values(newID(), book.Title, book.Author, book.Genre, book.ISBN, book.Description, book.Copies, book.Available).
		Suffix(returning(bookColumns)).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return r.queryBook(ctx, query, args...)
}

func listBooksQuery(query model.ListBooksQuery) sq.SelectBuilder {
	q := qb.Select(bookColumns...).From(booksCollection)
	if query.Genre != "" {
		q = q.Where(sq.Eq{"genre": query.Genre})
	}
	col, ok := model.SortableBookFields[query.SortBy]
	if !ok {
		col = model.SortableBookFields[model.DefaultSortBy]
	}
	dir := "asc"
	if query.Order == model.SortDesc {
		dir = "desc"
	}
	q = q.OrderBy(fmt.Sprintf("%s %s", col, dir), "id "+dir)
	if query.Limit > 0 {
		q = q.Limit(uint64(query.Limit))
	}
	return q
}

func (r *postgresRepository) ListBooks(ctx context.Context, query model.ListBooksQuery) ([]model.Book, error) {
	sql, args, err := listBooksQuery(query).ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListBooks", zap.String("query", sql), zap.Any("args", args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	books, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return books, nil
}

func (r *postgresRepository) GetBook(ctx context.Context, id string) (model.Book, error) {
	if !validID(id) {
		return model.Book{}, errs.ErrNotFound
	}
	query, args, err := qb.Select(bookColumns...).
		From(booksCollection).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return r.queryBook(ctx, query, args...)
}

func updateBookQuery(id string, patch model.BookPatch) sq.UpdateBuilder {
	q := qb.Update(booksCollection).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix(returning(bookColumns))
	if patch.Title != nil {
		q = q.Set("title", *patch.Title)
	}
	if patch.Author != nil {
		q = q.Set("author", *patch.Author)
	}
	if patch.Genre != nil {
		q = q.Set("genre", *patch.Genre)
	}
	if patch.ISBN != nil {
		q = q.Set("isbn", *patch.ISBN)
	}
	if patch.Description != nil {
		q = q.Set("description", *patch.Description)
	}
	if patch.Copies != nil {
		q = q.Set("copies", *patch.Copies)
	}
	if patch.Available != nil {
		q = q.Set("available", *patch.Available)
	}
	return q
}

func (r *postgresRepository) UpdateBook(ctx context.Context, id string, patch model.BookPatch) (model.Book, error) {
	if !validID(id) {
		return model.Book{}, errs.ErrNotFound
	}
	query, args, err := updateBookQuery(id, patch).ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return r.queryBook(ctx, query, args...)
}

func (r *postgresRepository) DeleteBook(ctx context.Context, id string) error {
	if !validID(id) {
		return errs.ErrNotFound
	}
	query, args, err := qb.Delete(booksCollection).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) ReserveCopies(ctx context.Context, id string, quantity int) (model.Book, error) {
	if !validID(id) {
		return model.Book{}, errs.ErrNotFound
	}
	q := `
update books
    set copies = greatest(copies - @quantity, 0),
        available = case when copies - @quantity <= 0 then false else available end,
        updated_at = now()
where id = @id and copies >= @quantity
` + returning(bookColumns)
	book, err := r.queryBook(ctx, q, pgx.NamedArgs{"id": id, "quantity": quantity})
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return model.Book{}, err
	}

	book, err = r.GetBook(ctx, id)
	if err != nil {
		return model.Book{}, err
	}
	return model.Book{}, &errs.InsufficientCopiesError{Available: book.Copies}
}

func (r *postgresRepository) ReleaseCopies(ctx context.Context, id string, quantity int) error {
	q := `
update books
    set copies = copies + @quantity,
        available = available or copies + @quantity > 0,
        updated_at = now()
where id = @id`
	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "quantity": quantity})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) CreateBorrow(ctx context.Context, borrow model.Borrow) (model.Borrow, error) {
	query, args, err := qb.Insert(borrowsCollection).
		Columns("id", "book_id", "quantity", "due_date").
		Values(newID(), borrow.Book, borrow.Quantity, borrow.DueDate.UTC()).
		Suffix(returning(borrowColumns)).
		ToSql()
	if err != nil {
		return model.Borrow{}, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Borrow{}, err
	}
	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Borrow])
	if err != nil {
		return model.Borrow{}, fmt.Errorf("pgx.CollectOneRow: %w", err)
	}
	return utcBorrow(created), nil
}

const borrowSummaryQuery = `
select b.title, b.isbn, s.total_quantity
from (
    select book_id, sum(quantity)::int as total_quantity, min(created_at) as first_borrowed_at
    from borrows
    group by book_id
) s
join books b on b.id = s.book_id
order by s.first_borrowed_at, s.book_id`

func (r *postgresRepository) BorrowSummary(ctx context.Context) ([]model.BorrowSummary, error) {
	rows, err := r.db.Query(ctx, borrowSummaryQuery)
	if err != nil {
		return nil, err
	}
	summary, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.BorrowSummary, error) {
		var s model.BorrowSummary
		err := row.Scan(&s.Book.Title, &s.Book.ISBN, &s.TotalQuantity)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return summary, nil
}

func (r *postgresRepository) queryBook(ctx context.Context, query string, args ...any) (model.Book, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, mapPgError(err)
	}
	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, mapPgError(err)
	}
	return utcBook(book), nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return errs.ErrDuplicateISBN
	}
	return err
}

func utcBook(b model.Book) model.Book {
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b
}

func utcBorrow(b model.Borrow) model.Borrow {
	b.DueDate = b.DueDate.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b
}
