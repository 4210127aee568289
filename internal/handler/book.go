package handler

import (
	"net/http"

	"github.com/sakif/library-records/internal/model"
	"github.com/sakif/library-records/internal/service"
)

// BookHandler serves the /books resource.
type BookHandler struct {
	books *service.BookService
}

func NewBookHandler(books *service.BookService) *BookHandler {
	return &BookHandler{books: books}
}

// BookResponse is the wire shape of a book.
type BookResponse struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	PublishedAt     *string `json:"published_at"`
	IsBorrowed      bool    `json:"is_borrowed"`
	CurrentBorrower *int64  `json:"current_borrower"`
}

func toBookResponse(b model.Book) BookResponse {
	return BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		PublishedAt:     model.FormatDate(b.PublishedAt),
		IsBorrowed:      b.IsBorrowed(),
		CurrentBorrower: b.CurrentBorrower,
	}
}

// bookRequest is the body of POST and PUT. Pointers distinguish "absent"
// from "empty".
type bookRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	PublishedAt *string `json:"published_at"`
}

func (req bookRequest) input() service.BookInput {
	return service.BookInput{
		Title:       req.Title,
		Author:      req.Author,
		PublishedAt: req.PublishedAt,
	}
}

// CreatedResponse answers a successful POST.
type CreatedResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// HandleList returns every book.
//
// HTTP: GET /books
func (h *BookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]BookResponse, 0, len(books))
	for _, b := range books {
		resp = append(resp, toBookResponse(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet returns one book.
//
// HTTP: GET /books/{id}
func (h *BookHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Book")
	if err != nil {
		writeError(w, r, err)
		return
	}

	book, err := h.books.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(*book))
}

// HandleCreate adds a book.
//
// HTTP: POST /books
// REQUEST BODY: {"title": "Dune", "author": "Herbert", "published_at": "1965-08-01"}
func (h *BookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	book, err := h.books.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreatedResponse{
		Message: "Book added successfully",
		ID:      book.ID,
	})
}

// HandleUpdate changes the provided fields of a book.
//
// HTTP: PUT /books/{id}
func (h *BookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Book")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req bookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.books.Update(r.Context(), id, req.input()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Book updated successfully"})
}

// HandleDelete removes a book and its borrow history.
//
// HTTP: DELETE /books/{id}
func (h *BookHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Book")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.books.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Book deleted successfully"})
}
