package api

import (
	"fmt"
	"net/http"
)

// Circulation handlers

func (h *Handler) borrow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Book not found")
		return
	}
	user := userFrom(r.Context())
	receipt, err := h.circulation.Borrow(r.Context(), user.ID, id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"message":        fmt.Sprintf("You have successfully borrowed '%s'", receipt.Book.Title),
		"borrow_details": receipt.Borrow,
	})
}

func (h *Handler) returnBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "No active borrow record found for this book")
		return
	}
	user := userFrom(r.Context())
	receipt, err := h.circulation.Return(r.Context(), user.ID, id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":        fmt.Sprintf("You have successfully returned '%s'", receipt.Book.Title),
		"return_details": receipt.Borrow,
	})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	borrows, err := h.circulation.History(r.Context(), user.ID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	if len(borrows) == 0 {
		respondMessage(w, http.StatusOK, "No borrowing history found")
		return
	}
	respondJSON(w, http.StatusOK, borrows)
}

func (h *Handler) activeBorrows(w http.ResponseWriter, r *http.Request) {
	borrows, err := h.circulation.ActiveBorrows(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	if len(borrows) == 0 {
		respondMessage(w, http.StatusOK, "No books are currently borrowed")
		return
	}
	respondJSON(w, http.StatusOK, borrows)
}
