package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"shelfkeeper/m/domain"
)

// Catalog handlers

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.ListBooks(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	if len(books) == 0 {
		respondMessage(w, http.StatusOK, "No books available in the library")
		return
	}
	respondJSON(w, http.StatusOK, books)
}

func (h *Handler) adminListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.ListBooks(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, books)
}

// createBooks accepts either a single book object or an array of them.
func (h *Handler) createBooks(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unable to read request body")
		return
	}
	items, err := decodeBooks(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}

	books, err := h.catalog.CreateBooks(r.Context(), items)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("%d books successfully added", len(books)),
		"books":   books,
	})
}

func decodeBooks(body []byte) ([]domain.NewBook, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []domain.NewBook
		err := json.Unmarshal(trimmed, &items)
		return items, err
	}
	var item domain.NewBook
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return nil, err
	}
	return []domain.NewBook{item}, nil
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Book not found")
		return
	}
	book, err := h.catalog.GetBook(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, book)
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Book not found")
		return
	}
	var patch domain.BookPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}
	book, err := h.catalog.UpdateBook(r.Context(), id, patch)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Book updated successfully",
		"book":    book,
	})
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Book not found")
		return
	}
	book, err := h.catalog.DeleteBook(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, fmt.Sprintf("Book '%s' deleted successfully", book.Title))
}
