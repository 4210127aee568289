package service

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/sakif/library-records/internal/apperror"
	"github.com/sakif/library-records/internal/model"
	"github.com/sakif/library-records/internal/repository"
)

// =========================================================================
// FAKE REPOSITORY
// =========================================================================

// fakeRepo is an in-memory implementation of every repository interface.
// Set failWith to simulate a database failure on the next write.
type fakeRepo struct {
	books    map[int64]*model.Book
	students map[int64]*model.Student
	borrows  []*model.Borrow
	nextID   int64
	failWith error
}

var (
	_ repository.BookRepository    = (*fakeRepo)(nil)
	_ repository.StudentRepository = (*fakeRepo)(nil)
	_ repository.BorrowRepository  = (*fakeRepo)(nil)
)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		books:    make(map[int64]*model.Book),
		students: make(map[int64]*model.Student),
	}
}

func (f *fakeRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) active(bookID int64) *model.Borrow {
	for _, b := range f.borrows {
		if b.BookID == bookID && b.ReturnedAt == nil {
			return b
		}
	}
	return nil
}

func (f *fakeRepo) CreateBook(_ context.Context, book *model.Book) error {
	if f.failWith != nil {
		return f.failWith
	}
	book.ID = f.id()
	stored := *book
	f.books[book.ID] = &stored
	return nil
}

func (f *fakeRepo) GetBook(_ context.Context, id int64) (*model.Book, error) {
	b, ok := f.books[id]
	if !ok {
		return nil, apperror.NotFound("Book")
	}
	result := *b
	result.CurrentBorrower = nil
	if a := f.active(id); a != nil {
		sid := a.StudentID
		result.CurrentBorrower = &sid
	}
	return &result, nil
}

func (f *fakeRepo) ListBooks(ctx context.Context) ([]model.Book, error) {
	ids := make([]int64, 0, len(f.books))
	for id := range f.books {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]model.Book, 0, len(ids))
	for _, id := range ids {
		b, _ := f.GetBook(ctx, id)
		result = append(result, *b)
	}
	return result, nil
}

func (f *fakeRepo) UpdateBook(_ context.Context, id int64, upd model.BookUpdate) error {
	if f.failWith != nil {
		return f.failWith
	}
	b, ok := f.books[id]
	if !ok {
		return apperror.NotFound("Book")
	}
	if upd.Title != nil {
		b.Title = *upd.Title
	}
	if upd.Author != nil {
		b.Author = *upd.Author
	}
	if upd.PublishedAt != nil {
		d := *upd.PublishedAt
		b.PublishedAt = &d
	}
	return nil
}

func (f *fakeRepo) DeleteBook(_ context.Context, id int64) error {
	if _, ok := f.books[id]; !ok {
		return apperror.NotFound("Book")
	}
	delete(f.books, id)
	kept := f.borrows[:0]
	for _, b := range f.borrows {
		if b.BookID != id {
			kept = append(kept, b)
		}
	}
	f.borrows = kept
	return nil
}

func (f *fakeRepo) CreateStudent(_ context.Context, s *model.Student) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.students {
		if existing.Email == s.Email {
			return apperror.Conflict("Email already registered")
		}
	}
	s.ID = f.id()
	stored := *s
	f.students[s.ID] = &stored
	return nil
}

func (f *fakeRepo) GetStudent(_ context.Context, id int64) (*model.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, apperror.NotFound("Student")
	}
	result := *s
	result.BorrowedBooks = []int64{}
	for _, b := range f.borrows {
		if b.StudentID == id && b.ReturnedAt == nil {
			result.BorrowedBooks = append(result.BorrowedBooks, b.BookID)
		}
	}
	return &result, nil
}

func (f *fakeRepo) ListStudents(ctx context.Context) ([]model.Student, error) {
	result := make([]model.Student, 0, len(f.students))
	for id := range f.students {
		s, _ := f.GetStudent(ctx, id)
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeRepo) UpdateStudent(_ context.Context, id int64, upd model.StudentUpdate) error {
	s, ok := f.students[id]
	if !ok {
		return apperror.NotFound("Student")
	}
	if upd.Email != nil {
		for otherID, other := range f.students {
			if otherID != id && other.Email == *upd.Email {
				return apperror.Conflict("Email already registered")
			}
		}
		s.Email = *upd.Email
	}
	if upd.FirstName != nil {
		s.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		s.LastName = *upd.LastName
	}
	if upd.BirthDate != nil {
		d := *upd.BirthDate
		s.BirthDate = &d
	}
	return nil
}

func (f *fakeRepo) DeleteStudent(_ context.Context, id int64) error {
	if _, ok := f.students[id]; !ok {
		return apperror.NotFound("Student")
	}
	for _, b := range f.borrows {
		if b.StudentID == id && b.ReturnedAt == nil {
			return apperror.Conflict("Student still has a borrowed book")
		}
	}
	delete(f.students, id)
	return nil
}

func (f *fakeRepo) OpenBorrow(_ context.Context, bookID, studentID int64, at time.Time) (*model.Borrow, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if f.active(bookID) != nil {
		return nil, apperror.Conflict("Book is already borrowed")
	}
	b := &model.Borrow{ID: f.id(), BookID: bookID, StudentID: studentID, BorrowedAt: at}
	f.borrows = append(f.borrows, b)
	result := *b
	return &result, nil
}

func (f *fakeRepo) CloseBorrow(_ context.Context, bookID int64, at time.Time) (*model.Borrow, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	b := f.active(bookID)
	if b == nil {
		return nil, apperror.Conflict("Book is not currently borrowed")
	}
	b.ReturnedAt = &at
	result := *b
	return &result, nil
}

func (f *fakeRepo) ListBookBorrows(_ context.Context, bookID int64) ([]model.Borrow, error) {
	result := []model.Borrow{}
	for _, b := range f.borrows {
		if b.BookID == bookID {
			r := *b
			if s, ok := f.students[b.StudentID]; ok {
				r.StudentName = s.FullName()
			}
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeRepo) ListStudentBorrows(_ context.Context, studentID int64) ([]model.Borrow, error) {
	result := []model.Borrow{}
	for _, b := range f.borrows {
		if b.StudentID == studentID {
			r := *b
			if book, ok := f.books[b.BookID]; ok {
				r.BookTitle = book.Title
			}
			result = append(result, r)
		}
	}
	return result, nil
}

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func ptr[T any](v T) *T { return &v }

func seedBook(t *testing.T, repo *fakeRepo, title, author string) *model.Book {
	t.Helper()
	b := &model.Book{Title: title, Author: author}
	if err := repo.CreateBook(context.Background(), b); err != nil {
		t.Fatalf("seeding book: %v", err)
	}
	return b
}

func seedStudent(t *testing.T, repo *fakeRepo, first, last, email string) *model.Student {
	t.Helper()
	s := &model.Student{FirstName: first, LastName: last, Email: email}
	if err := repo.CreateStudent(context.Background(), s); err != nil {
		t.Fatalf("seeding student: %v", err)
	}
	return s
}
