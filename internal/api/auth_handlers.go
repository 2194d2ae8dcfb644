package api

import (
	"net/http"

	"shelfkeeper/m/domain"
	"shelfkeeper/m/internal/service"
)

type loginResponse struct {
	domain.Profile
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}
	profile, err := h.identity.Register(r.Context(), req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, profile)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}
	res, err := h.identity.Login(r.Context(), req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{
		Profile: res.User.Profile(),
		Access:  res.Tokens.Access,
		Refresh: res.Tokens.Refresh,
	})
}

func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	refresh, ok := h.decodeRefresh(w, r)
	if !ok {
		return
	}
	res, err := h.identity.Refresh(r.Context(), refresh)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	refresh, ok := h.decodeRefresh(w, r)
	if !ok {
		return
	}
	if err := h.identity.Logout(r.Context(), refresh); err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Successfully logged out")
}

func (h *Handler) decodeRefresh(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body.")
		return "", false
	}
	if req.Refresh == "" {
		h.respondErr(w, r, &domain.ValidationError{
			Fields: domain.FieldErrors{"refresh": {"This field is required."}},
		})
		return "", false
	}
	return req.Refresh, true
}
