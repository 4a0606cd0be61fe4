package handler

import (
	"context"
	"net/http"

	"github.com/campus-auth/internal/domain"
	"github.com/campus-auth/internal/transport/http/middleware"
)

type accountFinder interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// MeHandler returns the account behind a session token.
type MeHandler struct {
	accounts accountFinder
}

func NewMeHandler(accounts accountFinder) *MeHandler { return &MeHandler{accounts: accounts} }

func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	acct, err := h.accounts.FindByEmail(r.Context(), claims.Email())
	if err != nil {
		httpError(w, r, err)
		return
	}
	if acct.Banned {
		writeError(w, http.StatusForbidden, "account is suspended")
		return
	}
	writeJSON(w, http.StatusOK, AccountEnvelope{
		Email:            acct.Email,
		Username:         acct.Username,
		University:       claims.University,
		UniversityDomain: acct.UniversityDomain,
		Verified:         acct.Verified,
	})
}
