package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/sakif/library-records/internal/apperror"
	"github.com/sakif/library-records/internal/model"
	"github.com/sakif/library-records/internal/repository"
)

var _ repository.BookRepository = (*DB)(nil)

// selectBooks joins each book to its active borrow, if any. The partial
// unique index guarantees the LEFT JOIN yields at most one row per book.
const selectBooks = `
	SELECT b.id, b.title, b.author, b.published_at,
	       a.student_id AS current_borrower
	FROM books b
	LEFT JOIN borrows a ON a.book_id = b.id AND a.returned_at IS NULL`

// CreateBook inserts the book and fills in its generated ID.
func (db *DB) CreateBook(ctx context.Context, book *model.Book) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO books (title, author, published_at) VALUES (?, ?, ?)`,
		book.Title,
		book.Author,
		book.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating book: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading book id: %w", err)
	}
	book.ID = id
	book.CurrentBorrower = nil

	return nil
}

// GetBook returns the book with its current borrower resolved.
func (db *DB) GetBook(ctx context.Context, id int64) (*model.Book, error) {
	var book model.Book
	err := db.conn.GetContext(ctx, &book, selectBooks+` WHERE b.id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Book")
		}
		return nil, fmt.Errorf("sqlite: getting book %d: %w", id, err)
	}
	return &book, nil
}

// ListBooks returns every book in insertion order.
func (db *DB) ListBooks(ctx context.Context) ([]model.Book, error) {
	books := []model.Book{}
	if err := db.conn.SelectContext(ctx, &books, selectBooks+` ORDER BY b.id`); err != nil {
		return nil, fmt.Errorf("sqlite: listing books: %w", err)
	}
	return books, nil
}

// UpdateBook writes only the fields set in upd.
func (db *DB) UpdateBook(ctx context.Context, id int64, upd model.BookUpdate) error {
	rec := goqu.Record{}
	if upd.Title != nil {
		rec["title"] = *upd.Title
	}
	if upd.Author != nil {
		rec["author"] = *upd.Author
	}
	if upd.PublishedAt != nil {
		rec["published_at"] = *upd.PublishedAt
	}
	if len(rec) == 0 {
		// Nothing to write; still report a missing book.
		_, err := db.GetBook(ctx, id)
		return err
	}

	query, args, err := dialect.Update("books").
		Prepared(true).
		Set(rec).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("sqlite: building book update: %w", err)
	}

	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating book %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("Book")
	}

	return nil
}

// DeleteBook removes the book and its borrow history in one transaction.
// The borrows are deleted explicitly so the cascade does not depend on the
// foreign_keys pragma being active.
func (db *DB) DeleteBook(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM borrows WHERE book_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting borrows of book %d: %w", id, err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting book %d: %w", id, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("Book")
		}
		return nil
	})
}
