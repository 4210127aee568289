package model

import "time"

// Student is a library member who can borrow books.
type Student struct {
	ID        int64      `db:"id"`
	FirstName string     `db:"first_name"`
	LastName  string     `db:"last_name"`
	Email     string     `db:"email"`
	BirthDate *time.Time `db:"birth_date"`

	// BorrowedBooks holds the ids of books the student currently has out,
	// oldest borrow first. Filled by every repository read and by create.
	BorrowedBooks []int64 `db:"-"`
}

// FullName is the display name used in borrow history.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentUpdate carries a partial update. Nil fields are left untouched.
type StudentUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	BirthDate *time.Time
}

func (u StudentUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil && u.BirthDate == nil
}
