package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/campus-auth/internal/application/profile"
	"github.com/campus-auth/internal/domain"
	"github.com/campus-auth/internal/transport/http/middleware"
)

const (
	maxAvatarBytes = 5 << 20
	maxFormBytes   = maxAvatarBytes + 1<<20
)

// ProfileHandler serves profile setup.
type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler { return &ProfileHandler{svc: svc} }

// Setup accepts multipart/form-data with the profile fields and an optional "avatar" file.
// The profile belongs to the bearer token's account; a form "email" must match it.
func (h *ProfileHandler) Setup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	email := claims.Email()
	if form := strings.TrimSpace(r.FormValue("email")); form != "" && domain.NormalizeEmail(form) != domain.NormalizeEmail(email) {
		writeError(w, http.StatusForbidden, "email does not match the signed-in account")
		return
	}
	fields := domain.ProfileFields{
		FirstName:   strings.TrimSpace(r.FormValue("firstName")),
		LastName:    strings.TrimSpace(r.FormValue("lastName")),
		PhoneNumber: optionalField(r, "phoneNumber"),
		Bio:         optionalField(r, "description"),
	}

	avatar, err := readAvatar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.SetupProfile(r.Context(), email, fields, avatar)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{
		ID:                res.Profile.ProfileID,
		Email:             res.Profile.Email,
		FirstName:         res.Profile.FirstName,
		LastName:          res.Profile.LastName,
		PhoneNumber:       res.Profile.PhoneNumber,
		Description:       res.Profile.Bio,
		ProfilePictureURL: res.PictureURL,
		UniversityName:    res.UniversityName,
		Token:             res.Token,
	})
}

func optionalField(r *http.Request, name string) *string {
	if _, ok := r.MultipartForm.Value[name]; !ok {
		return nil
	}
	v := strings.TrimSpace(r.FormValue(name))
	return &v
}

func readAvatar(r *http.Request) (*profile.Avatar, error) {
	file, header, err := r.FormFile("avatar")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("invalid avatar upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		return nil, errors.New("invalid avatar upload")
	}
	if len(data) > maxAvatarBytes {
		return nil, errors.New("avatar exceeds 5 MB")
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &profile.Avatar{Filename: header.Filename, Data: data}, nil
}
