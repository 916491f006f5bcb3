package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/postboard/backend/internal/middleware"
	"github.com/anonto42/postboard/backend/internal/models"
	"github.com/anonto42/postboard/backend/internal/repositories"
	"github.com/anonto42/postboard/backend/internal/services"
	"github.com/anonto42/postboard/backend/internal/testutil"
	"github.com/anonto42/postboard/backend/validators"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

type server struct {
	e     *echo.Echo
	db    *gorm.DB
	store *testutil.MemoryStore
	users repositories.UserRepository
	alice *models.User
	bob   *models.User
}

func newServer(t *testing.T, verifier IDTokenVerifier) *server {
	t.Helper()
	db := testutil.NewDB(t)
	store := testutil.NewMemoryStore()
	logger, _ := test.NewNullLogger()
	users := repositories.NewPostgresUserRepository(db)
	svc := services.NewPostService(
		repositories.NewPostgresPostRepository(db),
		repositories.NewPostgresLikeRepository(db),
		users,
		store,
		services.WithLogger(logger),
		services.WithMediaURL("/media"),
	)

	e := echo.New()
	e.Validator = validators.NewValidator()
	api := e.Group("/api/v1")
	optional := middleware.OptionalJWTAuthMiddleware(testSecret)
	required := middleware.JWTAuthMiddleware(testSecret)

	authHandler := NewAuthHandler(users, verifier, testSecret, time.Hour)
	authHandler.RegisterAuthRoutes(api.Group("/auth"))
	authHandler.RegisterProfileRoutes(api, required)
	NewPostHandler(svc).RegisterPostRoutes(api, optional, required)
	NewLikeHandler(svc).RegisterLikeRoutes(api, required)
	NewFeedHandler(svc, services.DefaultFeedLimit).RegisterFeedRoutes(api, optional, required)
	e.GET("/health", NewHealthHandler(db).HealthCheck)

	return &server{
		e:     e,
		db:    db,
		store: store,
		users: users,
		alice: testutil.CreateUser(t, db, "Alice"),
		bob:   testutil.CreateUser(t, db, "Bob"),
	}
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

// do sends req, authenticated as user when user is not nil.
func (s *server) do(t *testing.T, req *http.Request, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	if user != nil {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tokenFor(t, user))
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

type upload struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, file *upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile("image", file.name)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(v))
}

// createPost creates a post through the API and returns its view.
func (s *server) createPost(t *testing.T, user *models.User, title string) models.PostView {
	t.Helper()
	req := multipartRequest(t, http.MethodPost, "/api/v1/posts",
		map[string]string{"title": title, "description": "about " + title}, nil)
	rec := s.do(t, req, user)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view models.PostView
	decode(t, rec, &view)
	return view
}
