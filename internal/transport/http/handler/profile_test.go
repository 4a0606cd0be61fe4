package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campus-auth/internal/application/profile"
	"github.com/campus-auth/internal/domain"
	jwtinfra "github.com/campus-auth/internal/infrastructure/jwt"
	"github.com/campus-auth/internal/transport/http/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProfileSvc struct{ mock.Mock }

func (m *mockProfileSvc) SetupProfile(ctx context.Context, email string, fields domain.ProfileFields, avatar *profile.Avatar) (*profile.Result, error) {
	args := m.Called(ctx, email, fields, avatar)
	if v, _ := args.Get(0).(*profile.Result); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func multipartReq(t *testing.T, fields map[string]string, avatar []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if avatar != nil {
		fw, err := mw.CreateFormFile("avatar", "me.png")
		require.NoError(t, err)
		_, err = fw.Write(avatar)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	r := httptest.NewRequest(http.MethodPost, "/", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func signedIn(r *http.Request, email string) *http.Request {
	claims := &jwtinfra.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: email}}
	return r.WithContext(middleware.WithClaims(r.Context(), claims))
}

func TestProfileSetup_OK(t *testing.T) {
	svc := new(mockProfileSvc)
	h := NewProfileHandler(svc)
	bio := "selling textbooks"
	svc.On("SetupProfile", mock.Anything, "a@northeastern.edu",
		domain.ProfileFields{FirstName: "Alex", LastName: "Ander", Bio: &bio},
		&profile.Avatar{Filename: "me.png", Data: []byte("png-bytes")},
	).Return(&profile.Result{
		Profile:        &domain.Profile{ProfileID: "p1", Email: "a@northeastern.edu", FirstName: "Alex", LastName: "Ander", Bio: &bio},
		PictureURL:     "data:image/png;base64,cG5nLWJ5dGVz",
		UniversityName: "Northeastern University",
		Token:          "jwt",
	}, nil)

	rr := httptest.NewRecorder()
	h.Setup(rr, signedIn(multipartReq(t, map[string]string{
		"email": "A@Northeastern.edu", "firstName": "Alex", "lastName": "Ander", "description": bio,
	}, []byte("png-bytes")), "a@northeastern.edu"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"id":"p1","email":"a@northeastern.edu","firstName":"Alex","lastName":"Ander",
		"phoneNumber":null,"description":"selling textbooks",
		"profilePictureUrl":"data:image/png;base64,cG5nLWJ5dGVz",
		"universityName":"Northeastern University","token":"jwt"
	}`, rr.Body.String())
}

func TestProfileSetup_UnknownAccount(t *testing.T) {
	svc := new(mockProfileSvc)
	h := NewProfileHandler(svc)
	svc.On("SetupProfile", mock.Anything, "ghost@northeastern.edu", mock.Anything, (*profile.Avatar)(nil)).
		Return(nil, domain.ErrNotFound)

	rr := httptest.NewRecorder()
	h.Setup(rr, signedIn(multipartReq(t, map[string]string{"firstName": "G", "lastName": "H"}, nil), "ghost@northeastern.edu"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestProfileSetup_RequiresClaims(t *testing.T) {
	svc := new(mockProfileSvc)
	h := NewProfileHandler(svc)

	rr := httptest.NewRecorder()
	h.Setup(rr, multipartReq(t, map[string]string{"email": "a@northeastern.edu", "firstName": "A", "lastName": "B"}, nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "SetupProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileSetup_FormEmailMustMatchToken(t *testing.T) {
	svc := new(mockProfileSvc)
	h := NewProfileHandler(svc)

	rr := httptest.NewRecorder()
	h.Setup(rr, signedIn(multipartReq(t, map[string]string{
		"email": "victim@northeastern.edu", "firstName": "A", "lastName": "B",
	}, nil), "attacker@northeastern.edu"))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	svc.AssertNotCalled(t, "SetupProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileSetup_NotMultipart(t *testing.T) {
	h := NewProfileHandler(new(mockProfileSvc))
	rr := httptest.NewRecorder()
	h.Setup(rr, signedIn(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"email":"a"}`)), "a@northeastern.edu"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
