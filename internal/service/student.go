package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/library-records/internal/apperror"
	"github.com/sakif/library-records/internal/model"
	"github.com/sakif/library-records/internal/repository"
)

// Column widths of the students table; studentFields' max tags use the same
// values.
const (
	MaxNameLength  = 100
	MaxEmailLength = 255
)

const msgStudentRequired = "Invalid data, first_name, last_name and email are required"

// StudentInput carries client-supplied student fields. A nil field was
// absent from the request.
type StudentInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	BirthDate *string
}

// studentFields are the text columns of a student after normalising.
type studentFields struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,max=255,email"`
}

func studentEmptyMsg(field string) string {
	switch field {
	case "first_name":
		return "First name cannot be empty"
	case "last_name":
		return "Last name cannot be empty"
	default:
		return "Email cannot be empty"
	}
}

// StudentService handles library members.
type StudentService struct {
	repo   repository.StudentRepository
	logger *slog.Logger
}

func NewStudentService(repo repository.StudentRepository, logger *slog.Logger) *StudentService {
	return &StudentService{
		repo:   repo,
		logger: logger,
	}
}

func (s *StudentService) List(ctx context.Context) ([]model.Student, error) {
	students, err := s.repo.ListStudents(ctx)
	if err != nil {
		s.logger.Error("failed to list students", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing students: %w", err)
	}
	return students, nil
}

// Get returns a student with the ids of the books they currently hold.
func (s *StudentService) Get(ctx context.Context, id int64) (*model.Student, error) {
	return s.repo.GetStudent(ctx, id)
}

// Create validates and stores a new student. Emails are stored lower-cased
// so uniqueness is case-insensitive.
func (s *StudentService) Create(ctx context.Context, in StudentInput) (*model.Student, error) {
	fields := studentFields{
		FirstName: trimmed(in.FirstName),
		LastName:  trimmed(in.LastName),
		Email:     strings.ToLower(trimmed(in.Email)),
	}
	if err := checkFields(fields, always(msgStudentRequired)); err != nil {
		return nil, err
	}

	student := &model.Student{FirstName: fields.FirstName, LastName: fields.LastName, Email: fields.Email}
	if in.BirthDate != nil {
		d, err := parseDate("birth_date", *in.BirthDate)
		if err != nil {
			return nil, err
		}
		student.BirthDate = &d
	}

	if err := s.repo.CreateStudent(ctx, student); err != nil {
		if isAppError(err) {
			return nil, err
		}
		s.logger.Error("failed to create student", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating student: %w", err)
	}

	s.logger.Info("student created", slog.Int64("id", student.ID))
	return student, nil
}

// Update applies the provided fields only.
func (s *StudentService) Update(ctx context.Context, id int64, in StudentInput) error {
	if _, err := s.repo.GetStudent(ctx, id); err != nil {
		return err
	}

	var (
		upd     model.StudentUpdate
		fields  studentFields
		present []string
	)
	if in.FirstName != nil {
		fields.FirstName = trimmed(in.FirstName)
		upd.FirstName = &fields.FirstName
		present = append(present, "FirstName")
	}
	if in.LastName != nil {
		fields.LastName = trimmed(in.LastName)
		upd.LastName = &fields.LastName
		present = append(present, "LastName")
	}
	if in.Email != nil {
		fields.Email = strings.ToLower(trimmed(in.Email))
		upd.Email = &fields.Email
		present = append(present, "Email")
	}
	if len(present) > 0 {
		if err := checkFields(fields, studentEmptyMsg, present...); err != nil {
			return err
		}
	}
	if in.BirthDate != nil {
		d, err := parseDate("birth_date", *in.BirthDate)
		if err != nil {
			return err
		}
		upd.BirthDate = &d
	}
	if upd.Empty() {
		return apperror.ValidationFailed("", msgNoData)
	}

	if err := s.repo.UpdateStudent(ctx, id, upd); err != nil {
		if isAppError(err) {
			return err
		}
		s.logger.Error("failed to update student",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("updating student: %w", err)
	}

	s.logger.Info("student updated", slog.Int64("id", id))
	return nil
}

// Delete removes a student who holds no book, along with their history.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteStudent(ctx, id); err != nil {
		if isAppError(err) {
			return err
		}
		s.logger.Error("failed to delete student",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting student: %w", err)
	}

	s.logger.Info("student deleted", slog.Int64("id", id))
	return nil
}
