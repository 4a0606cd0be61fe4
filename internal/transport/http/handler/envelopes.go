package handler

import (
	"encoding/json"
	"net/http"

	"github.com/campus-auth/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CodeErrorEnvelope reports why a verification code was rejected.
type CodeErrorEnvelope struct {
	Error string               `json:"error"`
	Kind  domain.CodeErrorKind `json:"kind"`
}

// HealthEnvelope is the health-check body.
type HealthEnvelope struct {
	Status string `json:"status"`
}

// UnsupportedEnvelope is shown to users whose university has no marketplace.
type UnsupportedEnvelope struct {
	Message               string                       `json:"message"`
	SupportedUniversities []domain.SupportedUniversity `json:"supportedUniversities"`
}

// TrustedStatusEnvelope answers a trusted-device token check.
type TrustedStatusEnvelope struct {
	Valid bool `json:"valid"`
}

// ProfileEnvelope is returned by profile setup.
type ProfileEnvelope struct {
	ID                string  `json:"id"`
	Email             string  `json:"email"`
	FirstName         string  `json:"firstName"`
	LastName          string  `json:"lastName"`
	PhoneNumber       *string `json:"phoneNumber"`
	Description       *string `json:"description"`
	ProfilePictureURL string  `json:"profilePictureUrl,omitempty"`
	UniversityName    string  `json:"universityName"`
	Token             string  `json:"token"`
}

// AccountEnvelope is the caller's own account.
type AccountEnvelope struct {
	Email            string `json:"email"`
	Username         string `json:"username"`
	University       string `json:"university"`
	UniversityDomain string `json:"universityDomain"`
	Verified         bool   `json:"verified"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
