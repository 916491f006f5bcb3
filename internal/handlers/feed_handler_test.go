package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/anonto42/postboard/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedBody struct {
	Posts []models.PostView `json:"posts"`
}

func TestGetFeed(t *testing.T) {
	s := newServer(t, nil)
	var ids []uint
	for i := 1; i <= 7; i++ {
		ids = append(ids, s.createPost(t, s.alice, fmt.Sprintf("post %d", i)).ID)
	}

	cases := []struct {
		query string
		want  int
	}{
		{"", 5},
		{"?limit=2", 2},
		{"?limit=100", 7},
	}
	for _, tc := range cases {
		t.Run("limit"+tc.query, func(t *testing.T) {
			rec := s.do(t, jsonRequest(http.MethodGet, "/api/v1/feed"+tc.query, nil), nil)
			require.Equal(t, http.StatusOK, rec.Code)
			var body feedBody
			decode(t, rec, &body)
			require.Len(t, body.Posts, tc.want)
			assert.Equal(t, ids[len(ids)-1], body.Posts[0].ID)
			for i := 1; i < len(body.Posts); i++ {
				assert.Greater(t, body.Posts[i-1].ID, body.Posts[i].ID)
			}
		})
	}

	for _, bad := range []string{"?limit=0", "?limit=-3", "?limit=many"} {
		rec := s.do(t, jsonRequest(http.MethodGet, "/api/v1/feed"+bad, nil), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestGetDashboard(t *testing.T) {
	s := newServer(t, nil)
	s.createPost(t, s.alice, "a1")
	s.createPost(t, s.bob, "b1")
	s.createPost(t, s.alice, "a2")

	rec := s.do(t, jsonRequest(http.MethodGet, "/api/v1/dashboard", nil), s.alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var body feedBody
	decode(t, rec, &body)
	require.Len(t, body.Posts, 2)
	assert.Equal(t, "a2", body.Posts[0].Title)
	assert.Equal(t, "a1", body.Posts[1].Title)

	rec = s.do(t, jsonRequest(http.MethodGet, "/api/v1/dashboard", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
