package model

import "time"

// Borrow records one student holding one book.
// A nil ReturnedAt means the borrow is still active.
type Borrow struct {
	ID         int64      `db:"id"`
	BookID     int64      `db:"book_id"`
	StudentID  int64      `db:"student_id"`
	BorrowedAt time.Time  `db:"borrowed_at"`
	ReturnedAt *time.Time `db:"returned_at"`

	// Joined display fields, set by the history queries only.
	StudentName string `db:"student_name"`
	BookTitle   string `db:"book_title"`
}

// Active reports whether the book has not been returned yet.
func (b Borrow) Active() bool {
	return b.ReturnedAt == nil
}
