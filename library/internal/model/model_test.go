package model_test

import (
	"testing"

	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/stretchr/testify/require"
)

func TestUpdateAvailability(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		book      model.Book
		quantity  int
		copies    int
		available bool
	}{
		{
			name:      "copies left",
			book:      model.Book{Copies: 5, Available: true},
			quantity:  2,
			copies:    3,
			available: true,
		},
		{
			name:      "last copies",
			book:      model.Book{Copies: 3, Available: true},
			quantity:  3,
			copies:    0,
			available: false,
		},
		{
			name:      "clamped at zero",
			book:      model.Book{Copies: 1, Available: true},
			quantity:  4,
			copies:    0,
			available: false,
		},
		{
			name:      "unavailable flag kept while copies left",
			book:      model.Book{Copies: 5, Available: false},
			quantity:  1,
			copies:    4,
			available: false,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := model.UpdateAvailability(tt.book, tt.quantity)
			require.Equal(t, tt.copies, got.Copies)
			require.Equal(t, tt.available, got.Available)
		})
	}
}

func TestBookPatch_Apply(t *testing.T) {
	description := "x"
	book := model.Book{ID: "1", Title: "Dune", Author: "Herbert", Genre: model.GenreFiction, ISBN: "9780441172719", Copies: 2, Available: true}

	got := model.BookPatch{Description: &description}.Apply(book)

	want := book
	want.Description = "x"
	require.Equal(t, want, got)
}
