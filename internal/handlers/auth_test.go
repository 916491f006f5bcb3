package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/postboard/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	args := m.Called(ctx, idToken)
	if tok, ok := args.Get(0).(*auth.Token); ok {
		return tok, args.Error(1)
	}
	return nil, args.Error(1)
}

type tokenBody struct {
	Token string             `json:"token"`
	User  models.UserCompact `json:"user"`
}

func parseToken(t *testing.T, raw string) *models.JwtCustomClaims {
	t.Helper()
	claims := &models.JwtCustomClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	return claims
}

func TestSignupAndSignIn(t *testing.T) {
	s := newServer(t, nil)
	signup := map[string]string{"name": "Carol", "email": "Carol@Example.com", "password": "correct horse"}

	rec := s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/signup", signup), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created tokenBody
	decode(t, rec, &created)
	assert.Equal(t, "Carol", created.User.Name)
	assert.Equal(t, created.User.ID, parseToken(t, created.Token).UserID)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/signup", signup), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/signin",
		map[string]string{"email": "carol@example.com", "password": "wrong password"}), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/signin",
		map[string]string{"email": "nobody@example.com", "password": "whatever1"}), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/signin",
		map[string]string{"email": "carol@example.com", "password": "correct horse"}), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var signedIn tokenBody
	decode(t, rec, &signedIn)
	assert.Equal(t, created.User.ID, parseToken(t, signedIn.Token).UserID)
}

func TestSignupValidation(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/signup",
		map[string]string{"name": "C", "email": "not-an-email", "password": "short"}), nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body errorBody
	decode(t, rec, &body)
	assert.Contains(t, body.Errors, "name")
	assert.Contains(t, body.Errors, "email")
	assert.Contains(t, body.Errors, "password")
}

func TestGetProfile(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(t, jsonRequest(http.MethodGet, "/api/v1/profile", nil), s.alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var user models.User
	decode(t, rec, &user)
	assert.Equal(t, s.alice.ID, user.ID)
	assert.NotContains(t, rec.Body.String(), "not-a-real-hash")

	rec = s.do(t, jsonRequest(http.MethodGet, "/api/v1/profile", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFirebaseLoginUnconfigured(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/firebase-login", map[string]string{"idToken": "x"}), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestFirebaseLogin(t *testing.T) {
	verifier := new(MockVerifier)
	s := newServer(t, verifier)

	verifier.On("VerifyIDToken", mock.Anything, "new-user").Return(&auth.Token{
		UID:    "fb-1",
		Claims: map[string]interface{}{"email": "dana@example.com", "name": "Dana"},
	}, nil)
	verifier.On("VerifyIDToken", mock.Anything, "existing-email").Return(&auth.Token{
		UID:    "fb-2",
		Claims: map[string]interface{}{"email": s.alice.Email},
	}, nil)
	verifier.On("VerifyIDToken", mock.Anything, "forged").Return(nil, errors.New("signature mismatch"))

	login := func(idToken string) (int, tokenBody) {
		rec := s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/firebase-login", map[string]string{"idToken": idToken}), nil)
		var body tokenBody
		if rec.Code == http.StatusOK {
			decode(t, rec, &body)
		}
		return rec.Code, body
	}

	code, first := login("new-user")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Dana", first.User.Name)

	code, again := login("new-user")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, first.User.ID, again.User.ID)

	code, linked := login("existing-email")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, s.alice.ID, linked.User.ID)
	alice, err := s.users.GetUserByFirebaseUID(context.Background(), "fb-2")
	require.NoError(t, err)
	assert.Equal(t, s.alice.ID, alice.ID)

	code, _ = login("forged")
	assert.Equal(t, http.StatusUnauthorized, code)

	rec := s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/firebase-login", map[string]string{}), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	verifier.AssertExpectations(t)
}
