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

var _ repository.StudentRepository = (*DB)(nil)

const errEmailTaken = "Email already registered"

// CreateStudent inserts the student and fills in its generated ID.
// A duplicate email is reported as a conflict.
func (db *DB) CreateStudent(ctx context.Context, student *model.Student) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO students (first_name, last_name, email, birth_date)
		 VALUES (?, ?, ?, ?)`,
		student.FirstName,
		student.LastName,
		student.Email,
		student.BirthDate,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return apperror.Conflict(errEmailTaken)
		}
		return fmt.Errorf("sqlite: creating student: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading student id: %w", err)
	}
	student.ID = id
	student.BorrowedBooks = []int64{}

	return nil
}

// GetStudent returns the student with the ids of the books they hold.
func (db *DB) GetStudent(ctx context.Context, id int64) (*model.Student, error) {
	var s model.Student
	err := db.conn.GetContext(ctx, &s,
		`SELECT id, first_name, last_name, email, birth_date
		 FROM students WHERE id = ?`,
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Student")
		}
		return nil, fmt.Errorf("sqlite: getting student %d: %w", id, err)
	}

	s.BorrowedBooks = []int64{}
	err = db.conn.SelectContext(ctx, &s.BorrowedBooks,
		`SELECT book_id FROM borrows
		 WHERE student_id = ? AND returned_at IS NULL
		 ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing books held by student %d: %w", id, err)
	}

	return &s, nil
}

// ListStudents returns every student in insertion order. Held books are
// resolved with a single query over the active borrows.
func (db *DB) ListStudents(ctx context.Context) ([]model.Student, error) {
	students := []model.Student{}
	err := db.conn.SelectContext(ctx, &students,
		`SELECT id, first_name, last_name, email, birth_date
		 FROM students ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing students: %w", err)
	}

	var active []struct {
		StudentID int64 `db:"student_id"`
		BookID    int64 `db:"book_id"`
	}
	err = db.conn.SelectContext(ctx, &active,
		`SELECT student_id, book_id FROM borrows
		 WHERE returned_at IS NULL
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing active borrows: %w", err)
	}

	held := make(map[int64][]int64, len(active))
	for _, a := range active {
		held[a.StudentID] = append(held[a.StudentID], a.BookID)
	}
	for i := range students {
		students[i].BorrowedBooks = held[students[i].ID]
		if students[i].BorrowedBooks == nil {
			students[i].BorrowedBooks = []int64{}
		}
	}

	return students, nil
}

// UpdateStudent writes only the fields set in upd.
func (db *DB) UpdateStudent(ctx context.Context, id int64, upd model.StudentUpdate) error {
	rec := goqu.Record{}
	if upd.FirstName != nil {
		rec["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		rec["last_name"] = *upd.LastName
	}
	if upd.Email != nil {
		rec["email"] = *upd.Email
	}
	if upd.BirthDate != nil {
		rec["birth_date"] = *upd.BirthDate
	}
	if len(rec) == 0 {
		_, err := db.GetStudent(ctx, id)
		return err
	}

	query, args, err := dialect.Update("students").
		Prepared(true).
		Set(rec).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("sqlite: building student update: %w", err)
	}

	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		if isConstraintViolation(err) {
			return apperror.Conflict(errEmailTaken)
		}
		return fmt.Errorf("sqlite: updating student %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("Student")
	}

	return nil
}

// DeleteStudent removes a student and their returned borrows. A student who
// still holds a book cannot be deleted.
func (db *DB) DeleteStudent(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM students WHERE id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: checking student %d: %w", id, err)
		}
		if exists == 0 {
			return apperror.NotFound("Student")
		}

		var active int
		err := tx.GetContext(ctx, &active,
			`SELECT COUNT(*) FROM borrows WHERE student_id = ? AND returned_at IS NULL`, id)
		if err != nil {
			return fmt.Errorf("sqlite: counting active borrows of student %d: %w", id, err)
		}
		if active > 0 {
			return apperror.Conflict("Student still has a borrowed book")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM borrows WHERE student_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting borrows of student %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting student %d: %w", id, err)
		}
		return nil
	})
}
