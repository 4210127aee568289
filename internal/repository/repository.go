package repository

import (
	"context"
	"time"

	"github.com/sakif/library-records/internal/model"
)

type BookRepository interface {
	CreateBook(ctx context.Context, book *model.Book) error
	GetBook(ctx context.Context, id int64) (*model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	UpdateBook(ctx context.Context, id int64, upd model.BookUpdate) error
	// DeleteBook removes the book together with its borrow history.
	DeleteBook(ctx context.Context, id int64) error
}

type StudentRepository interface {
	CreateStudent(ctx context.Context, student *model.Student) error
	GetStudent(ctx context.Context, id int64) (*model.Student, error)
	ListStudents(ctx context.Context) ([]model.Student, error)
	UpdateStudent(ctx context.Context, id int64, upd model.StudentUpdate) error
	DeleteStudent(ctx context.Context, id int64) error
}

// BorrowRepository owns the borrow state machine. OpenBorrow and CloseBorrow
// each run atomically so at most one active borrow exists per book.
type BorrowRepository interface {
	// OpenBorrow fails with apperror.ErrConflict when the book is already out.
	OpenBorrow(ctx context.Context, bookID, studentID int64, at time.Time) (*model.Borrow, error)
	// CloseBorrow fails with apperror.ErrConflict when the book is not out.
	CloseBorrow(ctx context.Context, bookID int64, at time.Time) (*model.Borrow, error)
	ListBookBorrows(ctx context.Context, bookID int64) ([]model.Borrow, error)
	ListStudentBorrows(ctx context.Context, studentID int64) ([]model.Borrow, error)
}
