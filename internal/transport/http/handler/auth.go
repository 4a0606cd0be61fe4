package handler

import (
	"net/http"

	"github.com/campus-auth/internal/application/auth"
	"github.com/campus-auth/internal/pkg/validate"
)

const unsupportedMessage = "Sorry, UniMart hasn't gotten around to supporting a university marketplace for your college yet. " +
	"You can select from one of our supported universities below."

type emailRequest struct {
	Email string `json:"email" validate:"required"`
}

type verifyCodeRequest struct {
	Email      string `json:"email" validate:"required"`
	Code       string `json:"code" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type trustedTokenRequest struct {
	Email string `json:"email" validate:"required"`
	Token string `json:"token" validate:"required"`
}

// AuthHandler serves the email-code login flow.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) ValidateEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.RequestVerification(r.Context(), req.Email)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.ConfirmVerification(r.Context(), req.Email, req.Code, req.RememberMe)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// VerifyTrustedToken logs in with a remembered device token.
func (h *AuthHandler) VerifyTrustedToken(w http.ResponseWriter, r *http.Request) {
	var req trustedTokenRequest
	if err := decodeJSON(r, &req); err != nil || validate.Struct(req) != nil {
		writeError(w, http.StatusUnauthorized, "invalid trusted device token")
		return
	}
	res, err := h.svc.LoginWithTrustedToken(r.Context(), req.Email, req.Token)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// TrustedTokenStatus reports whether a device token is still valid without logging in.
func (h *AuthHandler) TrustedTokenStatus(w http.ResponseWriter, r *http.Request) {
	var req trustedTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ok, err := h.svc.VerifyTrustedToken(r.Context(), req.Email, req.Token)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TrustedStatusEnvelope{Valid: ok})
}

func (h *AuthHandler) SupportedUniversities(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.SupportedUniversities(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AuthHandler) Unsupported(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.SupportedUniversities(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UnsupportedEnvelope{Message: unsupportedMessage, SupportedUniversities: list})
}
