package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"ripple/internal/realtime"
	"ripple/internal/store/memory"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	cs := cookie.NewStore([]byte("test-secret"))
	// httptest serves plain HTTP; the store's default Secure cookie would be
	// dropped by the client jar, so every authenticated request would 401.
	cs.Options(sessions.Options{Path: "/", MaxAge: 86400, Secure: false, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("ripple_session", cs))
	RegisterRoutes(r, memory.New(), realtime.NewHub())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

// newSession is a second client against the same server with its own cookies.
func (c *apiClient) newSession() *apiClient {
	c.t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(c.t, err)
	return &apiClient{t: c.t, base: c.base, http: &http.Client{Jar: jar}}
}

func (c *apiClient) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (c *apiClient) signup(name string) map[string]any {
	c.t.Helper()
	status, out := c.do(http.MethodPost, "/api/auth/signup", gin.H{
		"username": name,
		"email":    name + "@example.com",
		"password": "secret-password",
	})
	require.Equal(c.t, http.StatusCreated, status)
	return out["data"].(map[string]any)
}

func TestSignupLoginFlow(t *testing.T) {
	api := newTestAPI(t)
	user := api.signup("alice")
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "password")

	status, _ := api.do(http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, status)

	// Logged out sessions are rejected on protected routes.
	status, out := api.do(http.MethodPost, "/api/posts", gin.H{
		"title": "t", "content": "c", "category": "general",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, out["success"])

	status, _ = api.do(http.MethodPost, "/api/auth/login", gin.H{
		"email": "alice@example.com", "password": "secret-password",
	})
	assert.Equal(t, http.StatusOK, status)

	status, out = api.do(http.MethodPost, "/api/auth/login", gin.H{
		"email": "alice@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid credentials", out["message"])
}

func TestVoteEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.signup("alice")

	status, out := api.do(http.MethodPost, "/api/posts", gin.H{
		"title": "hello", "content": "world", "category": "general",
	})
	require.Equal(t, http.StatusCreated, status)
	postID := uint(out["data"].(map[string]any)["id"].(float64))

	status, out = api.do(http.MethodPut, fmt.Sprintf("/api/posts/%d/upvote", postID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), out["voteCount"])
	assert.Equal(t, "up", out["voteState"])

	// Same direction again retracts.
	status, out = api.do(http.MethodPut, fmt.Sprintf("/api/posts/%d/upvote", postID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), out["voteCount"])
	assert.Equal(t, "none", out["voteState"])

	status, _ = api.do(http.MethodPut, "/api/posts/999/downvote", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFollowEndpoints(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup("alice")
	aliceID := uint(alice["id"].(float64))

	// Self-follow is rejected.
	status, out := api.do(http.MethodPost, "/api/follow-relations", gin.H{"targetId": aliceID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, out["success"])

	status, _ = api.do(http.MethodPost, "/api/follow-relations", gin.H{"targetId": 999})
	assert.Equal(t, http.StatusNotFound, status)

	bob := api.newSession()
	bob.signup("bob")
	status, _ = bob.do(http.MethodPost, "/api/follow-relations", gin.H{"targetId": aliceID})
	require.Equal(t, http.StatusOK, status)

	status, out = api.do(http.MethodGet, fmt.Sprintf("/api/users/%d/followers", aliceID), nil)
	require.Equal(t, http.StatusOK, status)
	followers := out["followers"].([]any)
	require.Len(t, followers, 1)
	assert.Equal(t, "bob", followers[0].(map[string]any)["username"])

	// alice now has one follow notification.
	status, out = api.do(http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, status)
	notes := out["data"].([]any)
	require.Len(t, notes, 1)
	assert.Equal(t, "FOLLOW", notes[0].(map[string]any)["kind"])

	status, _ = bob.do(http.MethodDelete, fmt.Sprintf("/api/follow-relations/%d", aliceID), nil)
	require.Equal(t, http.StatusOK, status)
	status, out = api.do(http.MethodGet, fmt.Sprintf("/api/users/%d/followers", aliceID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, out["followers"])
}

func TestFeedEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.signup("alice")

	for i := 0; i < 12; i++ {
		status, _ := api.do(http.MethodPost, "/api/posts", gin.H{
			"title": fmt.Sprintf("post %d", i), "content": "body", "category": "general",
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, out := api.do(http.MethodGet, "/api/feed?limit=10", nil)
	require.Equal(t, http.StatusOK, status)
	data := out["data"].([]any)
	assert.Len(t, data, 10)
	require.NotNil(t, out["nextCursor"])

	cursor := out["nextCursor"].(string)
	status, out = api.do(http.MethodGet, "/api/feed?limit=10&cursor="+cursor, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, out["data"].([]any), 2)
	assert.Nil(t, out["nextCursor"])

	status, _ = api.do(http.MethodGet, "/api/feed?cursor=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestNotificationEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.signup("alice")

	status, out := api.do(http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, out["data"])

	status, _ = api.do(http.MethodPost, "/api/notifications/read-all", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodPost, "/api/notifications/999/read", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
