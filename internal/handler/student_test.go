package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/library-records/internal/handler"
)

func TestStudentHandler_CreateAndGet(t *testing.T) {
	api := newTestAPI(t)

	rr := do(t, api, http.MethodPost, "/students",
		`{"first_name":" Ana ","last_name":"Ruiz","email":"Ana@Example.com","birth_date":"2001-04-09"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"message":"Student added successfully","id":1}`, rr.Body.String())

	rr = do(t, api, http.MethodGet, "/students/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"id":1,"first_name":"Ana","last_name":"Ruiz","email":"ana@example.com",
		"birth_date":"2001-04-09","borrowed_books":[]
	}`, rr.Body.String())

	assert.Equal(t, http.StatusNotFound, do(t, api, http.MethodGet, "/students/2", "").Code)
}

func TestStudentHandler_CreateInvalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing email", `{"first_name":"Ana","last_name":"Ruiz"}`, "Invalid data, first_name, last_name and email are required"},
		{"bad email", `{"first_name":"Ana","last_name":"Ruiz","email":"not-an-email"}`, "Invalid email address"},
		{"bad birth date", `{"first_name":"Ana","last_name":"Ruiz","email":"a@b.co","birth_date":"2001-02-30"}`, "Invalid date format, expected YYYY-MM-DD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)

			rr := do(t, api, http.MethodPost, "/students", tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.wantErr, errorMessage(t, rr))
		})
	}
}

func TestStudentHandler_DuplicateEmail(t *testing.T) {
	api := newTestAPI(t)
	createStudent(t, api, `{"first_name":"Ana","last_name":"Ruiz","email":"ana@example.com"}`)
	benID := createStudent(t, api, `{"first_name":"Ben","last_name":"Ode","email":"ben@example.com"}`)

	rr := do(t, api, http.MethodPost, "/students", `{"first_name":"Ann","last_name":"R","email":"ANA@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Email already registered", errorMessage(t, rr))

	rr = do(t, api, http.MethodPut, fmt.Sprintf("/students/%d", benID), `{"email":"ana@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Email already registered", errorMessage(t, rr))
}

func TestStudentHandler_ListShowsBorrowedBooks(t *testing.T) {
	api := newTestAPI(t)
	bookID := createBook(t, api, `{"title":"Dune","author":"Herbert"}`)
	ana := createStudent(t, api, `{"first_name":"Ana","last_name":"Ruiz","email":"ana@example.com"}`)
	createStudent(t, api, `{"first_name":"Ben","last_name":"Ode","email":"ben@example.com"}`)

	rr := do(t, api, http.MethodPost, fmt.Sprintf("/books/%d/borrow", bookID), fmt.Sprintf(`{"student_id":%d}`, ana))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, api, http.MethodGet, "/students", "")
	require.Equal(t, http.StatusOK, rr.Code)
	students := decode[[]handler.StudentResponse](t, rr)
	require.Len(t, students, 2)
	assert.Equal(t, []int64{bookID}, students[0].BorrowedBooks)
	assert.Equal(t, []int64{}, students[1].BorrowedBooks)
}

func TestStudentHandler_Update(t *testing.T) {
	api := newTestAPI(t)
	id := createStudent(t, api, `{"first_name":"Ana","last_name":"Ruiz","email":"ana@example.com"}`)
	path := fmt.Sprintf("/students/%d", id)

	rr := do(t, api, http.MethodPut, path, `{"last_name":"Ruiz-Vega"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"message":"Student updated successfully"}`, rr.Body.String())

	student := decode[handler.StudentResponse](t, do(t, api, http.MethodGet, path, ""))
	assert.Equal(t, "Ana", student.FirstName)
	assert.Equal(t, "Ruiz-Vega", student.LastName)

	rr = do(t, api, http.MethodPut, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No data provided", errorMessage(t, rr))

	assert.Equal(t, http.StatusNotFound, do(t, api, http.MethodPut, "/students/999", `{"last_name":"X"}`).Code)
}

func TestStudentHandler_Delete(t *testing.T) {
	api := newTestAPI(t)
	bookID := createBook(t, api, `{"title":"Dune","author":"Herbert"}`)
	id := createStudent(t, api, `{"first_name":"Ana","last_name":"Ruiz","email":"ana@example.com"}`)
	path := fmt.Sprintf("/students/%d", id)

	rr := do(t, api, http.MethodPost, fmt.Sprintf("/books/%d/borrow", bookID), fmt.Sprintf(`{"student_id":%d}`, id))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, api, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Student still has a borrowed book", errorMessage(t, rr))

	require.Equal(t, http.StatusOK, do(t, api, http.MethodPost, fmt.Sprintf("/books/%d/return", bookID), "").Code)

	rr = do(t, api, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"message":"Student deleted successfully"}`, rr.Body.String())

	assert.Equal(t, http.StatusNotFound, do(t, api, http.MethodGet, path, "").Code)
	assert.JSONEq(t, `[]`, do(t, api, http.MethodGet, fmt.Sprintf("/books/%d/borrows", bookID), "").Body.String())
	assert.Equal(t, http.StatusNotFound, do(t, api, http.MethodDelete, path, "").Code)
}
