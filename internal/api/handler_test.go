package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfkeeper/m/internal/auth"
	"shelfkeeper/m/internal/config"
	"shelfkeeper/m/internal/database"
	"shelfkeeper/m/internal/migrations"
	"shelfkeeper/m/internal/service"
	"shelfkeeper/m/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.Connect(config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))

	log := logrus.New()
	log.SetOutput(io.Discard)

	st := store.New(db)
	issuer := auth.NewIssuer("test-key", time.Hour, 24*time.Hour)
	h := New(
		service.NewIdentityService(st, issuer, log, false),
		service.NewCatalogService(st, log),
		service.NewCirculationService(st, log),
		log,
		CORSOptions{AllowedOrigins: []string{"http://localhost:5173"}},
	)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, map[string]any, []any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded any
	require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	switch v := decoded.(type) {
	case map[string]any:
		return resp.StatusCode, v, nil
	case []any:
		return resp.StatusCode, nil, v
	}
	return resp.StatusCode, nil, nil
}

// signupAndLogin registers a user and returns its access and refresh tokens.
func signupAndLogin(t *testing.T, srv *httptest.Server, username, role string) (string, string) {
	t.Helper()
	status, body, _ := call(t, srv, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, status, body)

	status, body, _ = call(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, status, body)
	return body["access"].(string), body["refresh"].(string)
}

func createBook(t *testing.T, srv *httptest.Server, admin, title string) int64 {
	t.Helper()
	status, body, _ := call(t, srv, http.MethodPost, "/api/admin/books", admin, map[string]string{
		"title":  title,
		"author": "Author",
	})
	require.Equal(t, http.StatusCreated, status, body)
	books := body["books"].([]any)
	return int64(books[0].(map[string]any)["id"].(float64))
}

func Test_Health(t *testing.T) {
	srv := newTestServer(t)
	status, body, _ := call(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func Test_Signup_ReturnsProfile(t *testing.T) {
	srv := newTestServer(t)

	status, body, _ := call(t, srv, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "member", body["role"])
	assert.NotContains(t, body, "password")
}

func Test_Signup_DuplicateUsername(t *testing.T) {
	srv := newTestServer(t)
	signupAndLogin(t, srv, "alice", "")

	status, body, _ := call(t, srv, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusBadRequest, status)
	errs := body["error"].(map[string]any)
	assert.Equal(t, []any{"A user with that username already exists."}, errs["username"])
}

func Test_Login_InvalidCredentials(t *testing.T) {
	srv := newTestServer(t)
	signupAndLogin(t, srv, "alice", "")

	status, body, _ := call(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "nope-nope",
	})
	require.Equal(t, http.StatusBadRequest, status)
	errs := body["error"].(map[string]any)
	assert.Equal(t, []any{"Invalid credentials, please try again."}, errs["non_field_errors"])
}

func Test_Login_ProfileAndTokens(t *testing.T) {
	srv := newTestServer(t)
	signupAndLogin(t, srv, "alice", "admin")

	status, body, _ := call(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin", body["role"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.NotEmpty(t, body["access"])
	assert.NotEmpty(t, body["refresh"])
}

func Test_API_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	status, body, _ := call(t, srv, http.MethodGet, "/api/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authentication credentials were not provided.", body["error"])

	status, body, _ = call(t, srv, http.MethodGet, "/api/books", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Given token not valid for any token type", body["error"])
}

func Test_Admin_ForbiddenForMember(t *testing.T) {
	srv := newTestServer(t)
	member, _ := signupAndLogin(t, srv, "bob", "")

	status, body, _ := call(t, srv, http.MethodPost, "/api/admin/books", member, map[string]string{
		"title":  "Dune",
		"author": "Frank Herbert",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You do not have permission to perform this action.", body["error"])
}

func Test_Books_EmptyCatalogMessage(t *testing.T) {
	srv := newTestServer(t)
	member, _ := signupAndLogin(t, srv, "bob", "")

	status, body, _ := call(t, srv, http.MethodGet, "/api/books/", member, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "No books available in the library", body["message"])
}

func Test_Admin_CreateBooksBatch(t *testing.T) {
	srv := newTestServer(t)
	admin, _ := signupAndLogin(t, srv, "root", "admin")

	status, body, _ := call(t, srv, http.MethodPost, "/api/admin/books", admin, []map[string]string{
		{"title": "Dune", "author": "Frank Herbert"},
		{"title": "Emma", "author": "Jane Austen"},
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "2 books successfully added", body["message"])

	status, _, list := call(t, srv, http.MethodGet, "/api/admin/books", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list, 2)
}

func Test_Admin_CreateBooksInvalidItem(t *testing.T) {
	srv := newTestServer(t)
	admin, _ := signupAndLogin(t, srv, "root", "admin")

	status, body, _ := call(t, srv, http.MethodPost, "/api/admin/books", admin, []map[string]string{
		{"title": "Dune", "author": "Frank Herbert"},
		{"title": "Nameless"},
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid data", body["error"])
	details := body["details"].([]any)
	require.Len(t, details, 2)
	assert.Contains(t, details[1].(map[string]any), "author")

	status, _, list := call(t, srv, http.MethodGet, "/api/admin/books", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, list)
}

func Test_Admin_UpdateAndDeleteBook(t *testing.T) {
	srv := newTestServer(t)
	admin, _ := signupAndLogin(t, srv, "root", "admin")
	id := createBook(t, srv, admin, "Dune")
	path := fmt.Sprintf("/api/admin/books/%d", id)

	status, body, _ := call(t, srv, http.MethodPatch, path, admin, map[string]any{"available": false})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Book updated successfully", body["message"])
	assert.Equal(t, false, body["book"].(map[string]any)["available"])

	status, body, _ = call(t, srv, http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Book 'Dune' deleted successfully", body["message"])

	status, body, _ = call(t, srv, http.MethodGet, path, admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Book not found", body["error"])
}

func Test_BorrowAndReturnFlow(t *testing.T) {
	srv := newTestServer(t)
	admin, _ := signupAndLogin(t, srv, "root", "admin")
	alice, _ := signupAndLogin(t, srv, "alice", "")
	bob, _ := signupAndLogin(t, srv, "bob", "")
	id := createBook(t, srv, admin, "Dune")

	status, body, _ := call(t, srv, http.MethodPost, fmt.Sprintf("/api/books/%d/borrow", id), alice, nil)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "You have successfully borrowed 'Dune'", body["message"])
	details := body["borrow_details"].(map[string]any)
	assert.Equal(t, "Dune", details["book_title"])
	assert.Nil(t, details["returned_at"])

	status, body, _ = call(t, srv, http.MethodPost, fmt.Sprintf("/api/books/%d/borrow", id), alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You have already borrowed this book", body["error"])

	status, body, _ = call(t, srv, http.MethodPost, fmt.Sprintf("/api/books/%d/borrow", id), bob, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Book is not available for borrowing", body["error"])

	status, _, active := call(t, srv, http.MethodGet, "/api/admin/borrowed-books", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, active, 1)

	status, body, _ = call(t, srv, http.MethodPost, fmt.Sprintf("/api/books/%d/return", id), bob, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No active borrow record found for this book", body["error"])

	status, body, _ = call(t, srv, http.MethodPost, fmt.Sprintf("/api/books/%d/return", id), alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "You have successfully returned 'Dune'", body["message"])
	assert.NotNil(t, body["return_details"].(map[string]any)["returned_at"])

	status, _, history := call(t, srv, http.MethodGet, "/api/books/history", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, history, 1)

	status, body, _ = call(t, srv, http.MethodGet, "/api/books/history", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "No borrowing history found", body["message"])

	status, body, _ = call(t, srv, http.MethodGet, "/api/admin/borrowed-books", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "No books are currently borrowed", body["message"])
}

func Test_Borrow_UnknownBook(t *testing.T) {
	srv := newTestServer(t)
	alice, _ := signupAndLogin(t, srv, "alice", "")

	status, body, _ := call(t, srv, http.MethodPost, "/api/books/999/borrow", alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Book not found", body["error"])

	status, _, _ = call(t, srv, http.MethodPost, "/api/books/abc/borrow", alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func Test_RefreshAndLogout(t *testing.T) {
	srv := newTestServer(t)
	_, refresh := signupAndLogin(t, srv, "alice", "")

	status, body, _ := call(t, srv, http.MethodPost, "/auth/token/refresh", "", map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, status)
	access := body["access"].(string)
	assert.NotEmpty(t, access)

	status, _, _ = call(t, srv, http.MethodGet, "/api/books", access, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body, _ = call(t, srv, http.MethodPost, "/auth/logout", "", map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Successfully logged out", body["message"])

	status, _, _ = call(t, srv, http.MethodPost, "/auth/token/refresh", "", map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body, _ = call(t, srv, http.MethodPost, "/auth/token/refresh", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"].(map[string]any), "refresh")
}
