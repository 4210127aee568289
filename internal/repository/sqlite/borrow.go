package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/library-records/internal/apperror"
	"github.com/sakif/library-records/internal/model"
	"github.com/sakif/library-records/internal/repository"
)

var _ repository.BorrowRepository = (*DB)(nil)

const (
	errAlreadyBorrowed = "Book is already borrowed"
	errNotBorrowed     = "Book is not currently borrowed"
	errActiveMissing   = "Active borrow record not found"
)

// OpenBorrow records studentID taking bookID at the given time.
//
// The active-borrow check and the insert share one transaction. If another
// writer slipped in anyway, the partial unique index rejects the insert and
// the caller sees the same conflict. A book or student removed after the
// service looked it up surfaces as not found.
func (db *DB) OpenBorrow(ctx context.Context, bookID, studentID int64, at time.Time) (*model.Borrow, error) {
	borrow := &model.Borrow{
		BookID:     bookID,
		StudentID:  studentID,
		BorrowedAt: at,
	}

	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		var active int
		err := tx.GetContext(ctx, &active,
			`SELECT COUNT(*) FROM borrows WHERE book_id = ? AND returned_at IS NULL`, bookID)
		if err != nil {
			return fmt.Errorf("sqlite: checking active borrow of book %d: %w", bookID, err)
		}
		if active > 0 {
			return apperror.Conflict(errAlreadyBorrowed)
		}

		return insertBorrow(ctx, tx, borrow)
	})
	if err != nil {
		return nil, err
	}

	return borrow, nil
}

// insertBorrow stores b and sets its id. Constraint failures are mapped to
// the domain error the caller would have got from the checks before it: a
// second active row is a conflict, a dangling book or student is not found.
func insertBorrow(ctx context.Context, tx *sqlx.Tx, b *model.Borrow) error {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO borrows (book_id, student_id, borrowed_at) VALUES (?, ?, ?)`,
		b.BookID, b.StudentID, b.BorrowedAt,
	)
	if err != nil {
		code, ok := constraintCode(err)
		switch {
		case ok && code == sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return apperror.Conflict(errAlreadyBorrowed)
		case ok && code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return missingBorrowParty(ctx, tx, b.BookID)
		}
		return fmt.Errorf("sqlite: creating borrow of book %d: %w", b.BookID, err)
	}

	b.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading borrow id: %w", err)
	}
	return nil
}

// missingBorrowParty names the side of a failed borrow insert that does not
// exist. The book is checked first, matching the order of the service checks.
func missingBorrowParty(ctx context.Context, tx *sqlx.Tx, bookID int64) error {
	var books int
	if err := tx.GetContext(ctx, &books, `SELECT COUNT(*) FROM books WHERE id = ?`, bookID); err != nil {
		return fmt.Errorf("sqlite: checking book %d: %w", bookID, err)
	}
	if books == 0 {
		return apperror.NotFound("Book")
	}
	return apperror.NotFound("Student")
}

// CloseBorrow marks the book's active borrow as returned at the given time.
func (db *DB) CloseBorrow(ctx context.Context, bookID int64, at time.Time) (*model.Borrow, error) {
	var borrow model.Borrow

	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &borrow,
			`SELECT id, book_id, student_id, borrowed_at, returned_at
			 FROM borrows
			 WHERE book_id = ? AND returned_at IS NULL`,
			bookID,
		)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.Conflict(errNotBorrowed)
			}
			return fmt.Errorf("sqlite: finding active borrow of book %d: %w", bookID, err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE borrows SET returned_at = ? WHERE id = ? AND returned_at IS NULL`,
			at, borrow.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: returning borrow %d: %w", borrow.ID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected != 1 {
			return apperror.Inconsistent(errActiveMissing)
		}

		borrow.ReturnedAt = &at
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &borrow, nil
}

// ListBookBorrows returns the book's borrow history in insertion order,
// with each borrower's display name.
func (db *DB) ListBookBorrows(ctx context.Context, bookID int64) ([]model.Borrow, error) {
	borrows := []model.Borrow{}
	err := db.conn.SelectContext(ctx, &borrows,
		`SELECT br.id, br.book_id, br.student_id, br.borrowed_at, br.returned_at,
		        s.first_name || ' ' || s.last_name AS student_name
		 FROM borrows br
		 JOIN students s ON s.id = br.student_id
		 WHERE br.book_id = ?
		 ORDER BY br.id`,
		bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing borrows of book %d: %w", bookID, err)
	}
	return borrows, nil
}

// ListStudentBorrows returns the student's borrow history in insertion
// order, with each book's title.
func (db *DB) ListStudentBorrows(ctx context.Context, studentID int64) ([]model.Borrow, error) {
	borrows := []model.Borrow{}
	err := db.conn.SelectContext(ctx, &borrows,
		`SELECT br.id, br.book_id, br.student_id, br.borrowed_at, br.returned_at,
		        b.title AS book_title
		 FROM borrows br
		 JOIN books b ON b.id = br.book_id
		 WHERE br.student_id = ?
		 ORDER BY br.id`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing borrows of student %d: %w", studentID, err)
	}
	return borrows, nil
}
