// Package service contains the business rules of the library.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates input, enforces the borrow rules
//	Repository      → reads/writes SQLite
//
// Services take repository interfaces, never a concrete database, so tests
// can run them against in-memory fakes. They return apperror values and know
// nothing about HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/library-records/internal/apperror"
	"github.com/sakif/library-records/internal/model"
	"github.com/sakif/library-records/internal/repository"
)

// Column widths of the books table; bookFields' max tags use the same values.
const (
	MaxTitleLength  = 255
	MaxAuthorLength = 255
)

const (
	msgTitleAuthorRequired = "Invalid data, title and author are required"
	msgInvalidDate         = "Invalid date format, expected YYYY-MM-DD"
	msgNoData              = "No data provided"
)

// BookInput carries client-supplied book fields. A nil field was absent
// from the request.
type BookInput struct {
	Title       *string
	Author      *string
	PublishedAt *string
}

// bookFields are the text columns of a book after trimming.
type bookFields struct {
	Title  string `json:"title" validate:"required,max=255"`
	Author string `json:"author" validate:"required,max=255"`
}

func bookEmptyMsg(field string) string {
	if field == "author" {
		return "Author cannot be empty"
	}
	return "Title cannot be empty"
}

// BookService handles catalogue operations.
type BookService struct {
	repo   repository.BookRepository
	logger *slog.Logger
}

func NewBookService(repo repository.BookRepository, logger *slog.Logger) *BookService {
	return &BookService{
		repo:   repo,
		logger: logger,
	}
}

// List returns every book with its borrow state.
func (s *BookService) List(ctx context.Context) ([]model.Book, error) {
	books, err := s.repo.ListBooks(ctx)
	if err != nil {
		s.logger.Error("failed to list books", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing books: %w", err)
	}
	return books, nil
}

// Get returns a single book. Fails with apperror.ErrNotFound.
func (s *BookService) Get(ctx context.Context, id int64) (*model.Book, error) {
	return s.repo.GetBook(ctx, id)
}

// Create validates and stores a new book. Title and author are required;
// published_at is optional and must be YYYY-MM-DD.
func (s *BookService) Create(ctx context.Context, in BookInput) (*model.Book, error) {
	fields := bookFields{Title: trimmed(in.Title), Author: trimmed(in.Author)}
	if err := checkFields(fields, always(msgTitleAuthorRequired)); err != nil {
		return nil, err
	}

	book := &model.Book{Title: fields.Title, Author: fields.Author}
	if in.PublishedAt != nil {
		d, err := parseDate("published_at", *in.PublishedAt)
		if err != nil {
			return nil, err
		}
		book.PublishedAt = &d
	}

	if err := s.repo.CreateBook(ctx, book); err != nil {
		s.logger.Error("failed to create book",
			slog.String("title", book.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating book: %w", err)
	}

	s.logger.Info("book created",
		slog.Int64("id", book.ID),
		slog.String("title", book.Title),
	)
	return book, nil
}

// Update applies the provided fields only. A missing book is reported
// before any field is validated, and all fields are validated before
// anything is written, so a bad date leaves the row untouched.
func (s *BookService) Update(ctx context.Context, id int64, in BookInput) error {
	if _, err := s.repo.GetBook(ctx, id); err != nil {
		return err
	}

	var (
		upd     model.BookUpdate
		fields  bookFields
		present []string
	)
	if in.Title != nil {
		fields.Title = trimmed(in.Title)
		upd.Title = &fields.Title
		present = append(present, "Title")
	}
	if in.Author != nil {
		fields.Author = trimmed(in.Author)
		upd.Author = &fields.Author
		present = append(present, "Author")
	}
	if len(present) > 0 {
		if err := checkFields(fields, bookEmptyMsg, present...); err != nil {
			return err
		}
	}
	if in.PublishedAt != nil {
		d, err := parseDate("published_at", *in.PublishedAt)
		if err != nil {
			return err
		}
		upd.PublishedAt = &d
	}

	if upd.Empty() {
		return apperror.ValidationFailed("", msgNoData)
	}

	if err := s.repo.UpdateBook(ctx, id, upd); err != nil {
		if isAppError(err) {
			return err
		}
		s.logger.Error("failed to update book",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("updating book: %w", err)
	}

	s.logger.Info("book updated", slog.Int64("id", id))
	return nil
}

// Delete removes the book and its borrow history.
func (s *BookService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBook(ctx, id); err != nil {
		if isAppError(err) {
			return err
		}
		s.logger.Error("failed to delete book",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting book: %w", err)
	}

	s.logger.Info("book deleted", slog.Int64("id", id))
	return nil
}

