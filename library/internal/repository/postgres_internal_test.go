package repository

import (
	"testing"

	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/stretchr/testify/require"
)

func TestListBooksQuery(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		query    model.ListBooksQuery
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:    "defaults",
			query:   model.ListBooksQuery{SortBy: model.DefaultSortBy, Order: model.SortAsc, Limit: 10},
			wantSQL: "SELECT id, title, author, genre, isbn, description, copies, available, created_at, updated_at FROM books ORDER BY created_at asc, id asc LIMIT 10",
		},
		{
			name:     "genre desc",
			query:    model.ListBooksQuery{Genre: "FICTION", SortBy: "copies", Order: model.SortDesc, Limit: 5},
			wantSQL:  "SELECT id, title, author, genre, isbn, description, copies, available, created_at, updated_at FROM books WHERE genre = $1 ORDER BY copies desc, id desc LIMIT 5",
			wantArgs: []interface{}{"FICTION"},
		},
		{
			name:    "unknown sort column",
			query:   model.ListBooksQuery{SortBy: "title; drop table books", Order: model.SortAsc, Limit: 1},
			wantSQL: "SELECT id, title, author, genre, isbn, description, copies, available, created_at, updated_at FROM books ORDER BY created_at asc, id asc LIMIT 1",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sql, args, err := listBooksQuery(tt.query).ToSql()
			require.NoError(t, err)
			require.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				require.Empty(t, args)
				return
			}
			require.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestUpdateBookQuery(t *testing.T) {
	t.Parallel()
	title := "Dune"
	copies := 3
	sql, args, err := updateBookQuery("65a1f0c2e4b0a1b2c3d4e5f6", model.BookPatch{Title: &title, Copies: &copies}).ToSql()
	require.NoError(t, err)
	require.Equal(t,
		"UPDATE books SET updated_at = now(), title = $1, copies = $2 WHERE id = $3 returning id, title, author, genre, isbn, description, copies, available, created_at, updated_at",
		sql)
	require.Equal(t, []interface{}{"Dune", 3, "65a1f0c2e4b0a1b2c3d4e5f6"}, args)
}
