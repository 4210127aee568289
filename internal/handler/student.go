package handler

import (
	"net/http"

	"github.com/sakif/library-records/internal/model"
	"github.com/sakif/library-records/internal/service"
)

// StudentHandler serves the /students resource.
type StudentHandler struct {
	students *service.StudentService
}

func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

type StudentResponse struct {
	ID            int64   `json:"id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Email         string  `json:"email"`
	BirthDate     *string `json:"birth_date"`
	BorrowedBooks []int64 `json:"borrowed_books"`
}

func toStudentResponse(s model.Student) StudentResponse {
	borrowed := s.BorrowedBooks
	if borrowed == nil {
		borrowed = []int64{}
	}
	return StudentResponse{
		ID:            s.ID,
		FirstName:     s.FirstName,
		LastName:      s.LastName,
		Email:         s.Email,
		BirthDate:     model.FormatDate(s.BirthDate),
		BorrowedBooks: borrowed,
	}
}

type studentRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	BirthDate *string `json:"birth_date"`
}

func (req studentRequest) input() service.StudentInput {
	return service.StudentInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		BirthDate: req.BirthDate,
	}
}

// HTTP: GET /students
func (h *StudentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		resp = append(resp, toStudentResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HTTP: GET /students/{id}
func (h *StudentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Student")
	if err != nil {
		writeError(w, r, err)
		return
	}

	student, err := h.students.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponse(*student))
}

// HTTP: POST /students
// REQUEST BODY: {"first_name": "Ana", "last_name": "Ruiz", "email": "ana@example.com"}
func (h *StudentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	student, err := h.students.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreatedResponse{
		Message: "Student added successfully",
		ID:      student.ID,
	})
}

// HTTP: PUT /students/{id}
func (h *StudentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Student")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req studentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.students.Update(r.Context(), id, req.input()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Student updated successfully"})
}

// HTTP: DELETE /students/{id}
func (h *StudentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Student")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.students.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Student deleted successfully"})
}
