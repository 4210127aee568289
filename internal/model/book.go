// Package model defines the records the service stores and serves.
//
// Relations are plain foreign-key columns (Borrow.BookID, Borrow.StudentID).
// Derived state such as "is this book borrowed" is filled in by the queries
// that load a record, never by walking an object graph.
package model

import "time"

// Book is a catalogue entry.
//
// CurrentBorrower is populated by the repository from the book's active
// borrow (if any). It is nil when the book is on the shelf.
type Book struct {
	ID              int64      `db:"id"`
	Title           string     `db:"title"`
	Author          string     `db:"author"`
	PublishedAt     *time.Time `db:"published_at"`
	CurrentBorrower *int64     `db:"current_borrower"`
}

// IsBorrowed reports whether the book has an active borrow.
func (b Book) IsBorrowed() bool {
	return b.CurrentBorrower != nil
}

// BookUpdate carries a partial update. Nil fields are left untouched.
type BookUpdate struct {
	Title       *string
	Author      *string
	PublishedAt *time.Time
}

// Empty reports whether the update would change nothing.
func (u BookUpdate) Empty() bool {
	return u.Title == nil && u.Author == nil && u.PublishedAt == nil
}
