package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/library-records/internal/apperror"
	"github.com/sakif/library-records/internal/model"
)

func newTestBookService(t *testing.T) (*BookService, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	return NewBookService(repo, testLogger()), repo
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestBookCreate_Success(t *testing.T) {
	svc, _ := newTestBookService(t)

	book, err := svc.Create(context.Background(), BookInput{
		Title:       ptr("  Dune "),
		Author:      ptr("Herbert"),
		PublishedAt: ptr("1965-08-01"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if book.ID != 1 {
		t.Errorf("ID = %d, want 1", book.ID)
	}
	if book.Title != "Dune" {
		t.Errorf("Title = %q, want trimmed %q", book.Title, "Dune")
	}
	if got := model.FormatDate(book.PublishedAt); got == nil || *got != "1965-08-01" {
		t.Errorf("PublishedAt = %v, want 1965-08-01", got)
	}
}

func TestBookCreate_WithoutDate(t *testing.T) {
	svc, _ := newTestBookService(t)

	book, err := svc.Create(context.Background(), BookInput{Title: ptr("Dune"), Author: ptr("Herbert")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if book.PublishedAt != nil {
		t.Errorf("PublishedAt = %v, want nil", book.PublishedAt)
	}
}

func TestBookCreate_ValidationErrors(t *testing.T) {
	long := make([]byte, MaxTitleLength+1)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name    string
		in      BookInput
		wantMsg string
	}{
		{
			name:    "missing title",
			in:      BookInput{Author: ptr("Herbert")},
			wantMsg: "Invalid data, title and author are required",
		},
		{
			name:    "missing author",
			in:      BookInput{Title: ptr("Dune")},
			wantMsg: "Invalid data, title and author are required",
		},
		{
			name:    "blank title",
			in:      BookInput{Title: ptr("   "), Author: ptr("Herbert")},
			wantMsg: "Invalid data, title and author are required",
		},
		{
			name:    "title too long",
			in:      BookInput{Title: ptr(string(long)), Author: ptr("Herbert")},
			wantMsg: "title must be 255 characters or less",
		},
		{
			name:    "invalid month",
			in:      BookInput{Title: ptr("Dune"), Author: ptr("Herbert"), PublishedAt: ptr("2024-13-01")},
			wantMsg: "Invalid date format, expected YYYY-MM-DD",
		},
		{
			name:    "wrong date layout",
			in:      BookInput{Title: ptr("Dune"), Author: ptr("Herbert"), PublishedAt: ptr("01/08/1965")},
			wantMsg: "Invalid date format, expected YYYY-MM-DD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestBookService(t)

			_, err := svc.Create(context.Background(), tt.in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Create() error = %v, want ErrValidation", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
			if len(repo.books) != 0 {
				t.Errorf("%d books stored, want none", len(repo.books))
			}
		})
	}
}

func TestBookCreate_RepositoryFailure(t *testing.T) {
	svc, repo := newTestBookService(t)
	repo.failWith = errors.New("disk full")

	_, err := svc.Create(context.Background(), BookInput{Title: ptr("Dune"), Author: ptr("Herbert")})
	if err == nil {
		t.Fatal("expected an error")
	}
	if isAppError(err) {
		t.Errorf("database failure must not look like a domain error: %v", err)
	}
}

// =========================================================================
// READ / UPDATE / DELETE TESTS
// =========================================================================

func TestBookGet_NotFound(t *testing.T) {
	svc, _ := newTestBookService(t)

	_, err := svc.Get(context.Background(), 1)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestBookUpdate_Partial(t *testing.T) {
	svc, repo := newTestBookService(t)
	book := seedBook(t, repo, "Dune", "Herbert")

	if err := svc.Update(context.Background(), book.ID, BookInput{Author: ptr("Frank Herbert")}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	stored := repo.books[book.ID]
	if stored.Author != "Frank Herbert" {
		t.Errorf("Author = %q, want %q", stored.Author, "Frank Herbert")
	}
	if stored.Title != "Dune" {
		t.Errorf("Title = %q, want unchanged", stored.Title)
	}
}

func TestBookUpdate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		id      int64
		in      BookInput
		wantErr error
	}{
		{name: "missing book", id: 99, in: BookInput{Title: ptr("X")}, wantErr: apperror.ErrNotFound},
		{name: "missing book with bad date", id: 99, in: BookInput{PublishedAt: ptr("nope")}, wantErr: apperror.ErrNotFound},
		{name: "bad date", id: 1, in: BookInput{PublishedAt: ptr("2024-02-30")}, wantErr: apperror.ErrValidation},
		{name: "blank title", id: 1, in: BookInput{Title: ptr("")}, wantErr: apperror.ErrValidation},
		{name: "no fields", id: 1, in: BookInput{}, wantErr: apperror.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestBookService(t)
			seedBook(t, repo, "Dune", "Herbert")

			err := svc.Update(context.Background(), tt.id, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Update() error = %v, want %v", err, tt.wantErr)
			}
			if repo.books[1].Title != "Dune" || repo.books[1].PublishedAt != nil {
				t.Error("failed update must not modify the book")
			}
		})
	}
}

func TestBookDelete(t *testing.T) {
	svc, repo := newTestBookService(t)
	book := seedBook(t, repo, "Dune", "Herbert")

	if err := svc.Delete(context.Background(), book.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	books, _ := svc.List(context.Background())
	if len(books) != 0 {
		t.Errorf("List() after delete = %d books, want 0", len(books))
	}

	if err := svc.Delete(context.Background(), book.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
