package handler

import (
	"net/http"

	"github.com/sakif/library-records/internal/model"
	"github.com/sakif/library-records/internal/service"
)

// BorrowHandler serves lending and history endpoints.
type BorrowHandler struct {
	borrows *service.BorrowService
}

func NewBorrowHandler(borrows *service.BorrowService) *BorrowHandler {
	return &BorrowHandler{borrows: borrows}
}

type borrowRequest struct {
	StudentID studentIDField `json:"student_id"`
}

// studentIDField tells an absent student_id apart from one sent as null or
// 0. Only the absent case is a missing field; the others are looked up and
// simply match no student.
type studentIDField struct {
	present bool
	value   int64
}

func (f *studentIDField) UnmarshalJSON(b []byte) error {
	f.present = true
	if string(b) == "null" {
		return nil
	}
	return json.Unmarshal(b, &f.value)
}

func (f studentIDField) ptr() *int64 {
	if !f.present {
		return nil
	}
	v := f.value
	return &v
}

// BorrowedResponse answers POST /books/{id}/borrow.
type BorrowedResponse struct {
	Message    string `json:"message"`
	BorrowID   int64  `json:"borrow_id"`
	BorrowedAt string `json:"borrowed_at"`
}

// ReturnedResponse answers POST /books/{id}/return.
type ReturnedResponse struct {
	Message    string `json:"message"`
	BorrowID   int64  `json:"borrow_id"`
	BorrowedAt string `json:"borrowed_at"`
	ReturnedAt string `json:"returned_at"`
}

// BookBorrowResponse is one row of a book's history.
type BookBorrowResponse struct {
	ID          int64   `json:"id"`
	StudentID   int64   `json:"student_id"`
	StudentName string  `json:"student_name"`
	BorrowedAt  string  `json:"borrowed_at"`
	ReturnedAt  *string `json:"returned_at"`
}

// StudentBorrowResponse is one row of a student's history.
type StudentBorrowResponse struct {
	ID         int64   `json:"id"`
	BookID     int64   `json:"book_id"`
	BookTitle  string  `json:"book_title"`
	BorrowedAt string  `json:"borrowed_at"`
	ReturnedAt *string `json:"returned_at"`
}

// HandleBorrow lends a book to a student.
//
// HTTP: POST /books/{id}/borrow
// REQUEST BODY: {"student_id": 1}
func (h *BorrowHandler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "Book")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req borrowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	borrow, err := h.borrows.Borrow(r.Context(), bookID, req.StudentID.ptr())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, BorrowedResponse{
		Message:    "Book borrowed successfully",
		BorrowID:   borrow.ID,
		BorrowedAt: model.FormatTimestamp(borrow.BorrowedAt),
	})
}

// HandleReturn closes the active borrow of a book.
//
// HTTP: POST /books/{id}/return
func (h *BorrowHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "Book")
	if err != nil {
		writeError(w, r, err)
		return
	}

	borrow, err := h.borrows.Return(r.Context(), bookID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := ReturnedResponse{
		Message:    "Book returned successfully",
		BorrowID:   borrow.ID,
		BorrowedAt: model.FormatTimestamp(borrow.BorrowedAt),
	}
	if !borrow.Active() {
		resp.ReturnedAt = model.FormatTimestamp(*borrow.ReturnedAt)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HTTP: GET /books/{id}/borrows
func (h *BorrowHandler) HandleBookHistory(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "Book")
	if err != nil {
		writeError(w, r, err)
		return
	}

	borrows, err := h.borrows.BookHistory(r.Context(), bookID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]BookBorrowResponse, 0, len(borrows))
	for _, b := range borrows {
		resp = append(resp, BookBorrowResponse{
			ID:          b.ID,
			StudentID:   b.StudentID,
			StudentName: b.StudentName,
			BorrowedAt:  model.FormatTimestamp(b.BorrowedAt),
			ReturnedAt:  model.FormatOptionalTimestamp(b.ReturnedAt),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// HTTP: GET /students/{id}/borrows
func (h *BorrowHandler) HandleStudentHistory(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathID(r, "Student")
	if err != nil {
		writeError(w, r, err)
		return
	}

	borrows, err := h.borrows.StudentHistory(r.Context(), studentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]StudentBorrowResponse, 0, len(borrows))
	for _, b := range borrows {
		resp = append(resp, StudentBorrowResponse{
			ID:         b.ID,
			BookID:     b.BookID,
			BookTitle:  b.BookTitle,
			BorrowedAt: model.FormatTimestamp(b.BorrowedAt),
			ReturnedAt: model.FormatOptionalTimestamp(b.ReturnedAt),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
