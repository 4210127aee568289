package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/library-records/internal/apperror"
	"github.com/sakif/library-records/internal/model"
	"github.com/sakif/library-records/internal/repository"
)

// BorrowService runs the per-book state machine
//
//	Available → Borrowed → Available → ...
//
// Existence checks happen here; the atomic "at most one active borrow"
// guarantee lives in BorrowRepository.
type BorrowService struct {
	books    repository.BookRepository
	students repository.StudentRepository
	borrows  repository.BorrowRepository
	logger   *slog.Logger

	// now is swapped in tests for a fixed clock.
	now func() time.Time
}

func NewBorrowService(
	books repository.BookRepository,
	students repository.StudentRepository,
	borrows repository.BorrowRepository,
	logger *slog.Logger,
) *BorrowService {
	return &BorrowService{
		books:    books,
		students: students,
		borrows:  borrows,
		logger:   logger,
		now:      time.Now,
	}
}

// timestamp is the current time in UTC at the precision the API reports.
func (s *BorrowService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// Borrow lends bookID to studentID. A nil studentID means the client sent
// no student at all; any id that was sent, including 0, is looked up.
//
// Checks run in a fixed order: student id present, book exists, student
// exists, book not already out.
func (s *BorrowService) Borrow(ctx context.Context, bookID int64, studentID *int64) (*model.Borrow, error) {
	if studentID == nil {
		return nil, apperror.ValidationFailed("student_id", "Student ID is required")
	}

	if _, err := s.books.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	student, err := s.students.GetStudent(ctx, *studentID)
	if err != nil {
		return nil, err
	}

	borrow, err := s.borrows.OpenBorrow(ctx, bookID, student.ID, s.timestamp())
	if err != nil {
		if isAppError(err) {
			return nil, err
		}
		s.logger.Error("failed to borrow book",
			slog.Int64("book_id", bookID),
			slog.Int64("student_id", student.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("borrowing book: %w", err)
	}

	s.logger.Info("book borrowed",
		slog.Int64("borrow_id", borrow.ID),
		slog.Int64("book_id", bookID),
		slog.Int64("student_id", student.ID),
		slog.String("student", student.FullName()),
	)
	return borrow, nil
}

// Return closes the book's active borrow.
func (s *BorrowService) Return(ctx context.Context, bookID int64) (*model.Borrow, error) {
	if _, err := s.books.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	borrow, err := s.borrows.CloseBorrow(ctx, bookID, s.timestamp())
	if err != nil {
		if isAppError(err) {
			// Broken invariant.
			if errors.Is(err, apperror.ErrInternal) {
				s.logger.Error("active borrow vanished during return",
					slog.Int64("book_id", bookID),
				)
			}
			return nil, err
		}
		s.logger.Error("failed to return book",
			slog.Int64("book_id", bookID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("returning book: %w", err)
	}

	s.logger.Info("book returned",
		slog.Int64("borrow_id", borrow.ID),
		slog.Int64("book_id", bookID),
	)
	return borrow, nil
}

// BookHistory lists every borrow of a book, oldest first.
func (s *BorrowService) BookHistory(ctx context.Context, bookID int64) ([]model.Borrow, error) {
	if _, err := s.books.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	borrows, err := s.borrows.ListBookBorrows(ctx, bookID)
	if err != nil {
		s.logger.Error("failed to list book borrows",
			slog.Int64("book_id", bookID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing book borrows: %w", err)
	}
	return borrows, nil
}

// StudentHistory lists every borrow made by a student, oldest first.
func (s *BorrowService) StudentHistory(ctx context.Context, studentID int64) ([]model.Borrow, error) {
	if _, err := s.students.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}

	borrows, err := s.borrows.ListStudentBorrows(ctx, studentID)
	if err != nil {
		s.logger.Error("failed to list student borrows",
			slog.Int64("student_id", studentID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing student borrows: %w", err)
	}
	return borrows, nil
}
