package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	httpapi "github.com/aussiebroadwan/forum/internal/forum/http"
	"github.com/aussiebroadwan/forum/internal/forum/observability"
	"github.com/aussiebroadwan/forum/internal/forum/service"
	"github.com/aussiebroadwan/forum/internal/forum/store/drivers/sqlite"
	"github.com/aussiebroadwan/forum/pkg/cryptox"
	"github.com/aussiebroadwan/forum/pkg/forumsdk"
	"github.com/aussiebroadwan/forum/pkg/httpx"
	"github.com/aussiebroadwan/forum/pkg/jwtx"
)

type testServer struct {
	client *forumsdk.SDKClient
	url    string
	topics *service.TopicService
	tokens *service.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.FileDSN(filepath.Join(t.TempDir(), "forum.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewHS256([]byte("0123456789abcdef0123456789abcdef"), "forum-test")
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	tokens := &service.TokenService{Signer: signer, TTL: jwtx.DefaultSessionTTL}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := httpapi.NewRouter(signer, "test", st, logger)
	router.AuthService = &service.AuthService{
		Store:   st,
		Hasher:  cryptox.NewHasher(""),
		Tokens:  tokens,
		Metrics: metrics,
	}
	router.SubscriptionService = &service.SubscriptionService{Store: st, Metrics: metrics}
	router.Metrics = metrics
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		client: forumsdk.NewSDKClient(srv.URL),
		url:    srv.URL,
		topics: &service.TopicService{Store: st},
		tokens: tokens,
	}
}

func TestAliceScenarioOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ctx := t.Context()

	topic, err := ts.topics.CreateTopic(ctx, "Go", "All things Go")
	require.NoError(t, err)

	registered, err := ts.client.Register(ctx, forumsdk.RegisterRequest{
		Email: "alice@x.com", Username: "alice", Password: "Abcd1234!",
	})
	require.NoError(t, err)

	session, err := ts.client.Login(ctx, "alice@x.com", "Abcd1234!")
	require.NoError(t, err)
	require.Equal(t, registered.UserID(), session.UserID())

	before, err := session.ListTopics(ctx)
	require.NoError(t, err)
	require.Len(t, before, 1)

	sub, err := session.Subscribe(ctx, topic.ID)
	require.NoError(t, err)
	require.Equal(t, before[0].Subscribers+1, sub.Subscribers)
	require.True(t, sub.Subscribed)

	_, err = session.Subscribe(ctx, topic.ID)
	require.True(t, forumsdk.IsCode(err, forumsdk.CodeAlreadySubscribed))
	var apiErr *forumsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	mine, err := session.ListSubscribed(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	unsub, err := session.Unsubscribe(ctx, topic.ID)
	require.NoError(t, err)
	require.Equal(t, sub.Subscribers-1, unsub.Subscribers)

	oldToken := session.Token()
	username := "alice2"
	res, err := session.UpdateProfile(ctx, forumsdk.UpdateProfileRequest{Username: &username})
	require.NoError(t, err)
	require.Empty(t, res.Token)
	require.Equal(t, "Profile updated successfully", res.Message)
	require.Equal(t, oldToken, session.Token())

	email := "alice@y.com"
	res, err = session.UpdateProfile(ctx, forumsdk.UpdateProfileRequest{Email: &email})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.True(t, ts.tokens.Verify(session.Token(), "alice@y.com"))

	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice2", me.Username)
	require.Equal(t, "alice@y.com", me.Email)

	refreshed, err := session.Refresh(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.Token)
}

func TestAuthErrorsOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ctx := t.Context()

	_, err := ts.client.Register(ctx, forumsdk.RegisterRequest{
		Email: "alice@x.com", Username: "alice", Password: "Abcd1234!",
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		call   func() error
		status int
		code   string
	}{
		{"duplicate email", func() error {
			_, err := ts.client.Register(ctx, forumsdk.RegisterRequest{Email: "alice@x.com", Username: "bob", Password: "Abcd1234!"})
			return err
		}, http.StatusConflict, forumsdk.CodeUserAlreadyExists},
		{"weak password", func() error {
			_, err := ts.client.Register(ctx, forumsdk.RegisterRequest{Email: "bob@x.com", Username: "bob", Password: "abc"})
			return err
		}, http.StatusBadRequest, forumsdk.CodeInvalidPassword},
		{"wrong password", func() error {
			_, err := ts.client.Login(ctx, "alice", "Wrong123!")
			return err
		}, http.StatusUnauthorized, forumsdk.CodeInvalidPassword},
		{"unknown user", func() error {
			_, err := ts.client.Login(ctx, "nobody", "Abcd1234!")
			return err
		}, http.StatusNotFound, forumsdk.CodeUserNotFound},
		{"garbage token", func() error {
			_, err := ts.client.NewSessionFromToken("garbage").Me(ctx)
			return err
		}, http.StatusUnauthorized, forumsdk.CodeInvalidToken},
		{"missing token", func() error {
			_, err := ts.client.NewSessionFromToken("").ListTopics(ctx)
			return err
		}, http.StatusUnauthorized, forumsdk.CodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var apiErr *forumsdk.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Equal(t, tt.code, apiErr.Code)
			require.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestUpdateProfile_OtherUserForbidden(t *testing.T) {
	ts := newTestServer(t)
	ctx := t.Context()

	alice, err := ts.client.Register(ctx, forumsdk.RegisterRequest{Email: "alice@x.com", Username: "alice", Password: "Abcd1234!"})
	require.NoError(t, err)
	bob, err := ts.client.Register(ctx, forumsdk.RegisterRequest{Email: "bob@x.com", Username: "bob", Password: "Abcd1234!"})
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, ts.url+"/api/auth/users/"+alice.UserID(),
		strings.NewReader(`{"username":"pwned"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+bob.Token())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var body httpx.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, forumsdk.CodeForbidden, body.Error)

	me, err := alice.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", me.Username)
}

// TestStaleTokenAfterEmailReuse replays a token issued before an email
// change once another account has registered the released address.
func TestStaleTokenAfterEmailReuse(t *testing.T) {
	ts := newTestServer(t)
	ctx := t.Context()

	alice, err := ts.client.Register(ctx, forumsdk.RegisterRequest{Email: "alice@x.com", Username: "alice", Password: "Abcd1234!"})
	require.NoError(t, err)
	oldToken := alice.Token()

	newEmail := "alice2@x.com"
	_, err = alice.UpdateProfile(ctx, forumsdk.UpdateProfileRequest{Email: &newEmail})
	require.NoError(t, err)

	bob, err := ts.client.Register(ctx, forumsdk.RegisterRequest{Email: "alice@x.com", Username: "bob", Password: "Bobpass123!"})
	require.NoError(t, err)

	stale := ts.client.NewSessionFromToken(oldToken)

	_, err = stale.Me(ctx)
	require.True(t, forumsdk.IsCode(err, forumsdk.CodeInvalidToken), "me: %v", err)

	_, err = stale.Refresh(ctx)
	var apiErr *forumsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, forumsdk.CodeInvalidToken, apiErr.Code)

	_, err = stale.ListTopics(ctx)
	require.True(t, forumsdk.IsCode(err, forumsdk.CodeInvalidToken), "list topics: %v", err)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, ts.url+"/api/auth/users/"+bob.UserID(),
		strings.NewReader(`{"password":"Takeover1!"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+oldToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, err = ts.client.Login(ctx, "bob", "Bobpass123!")
	require.NoError(t, err, "bob keeps his password")

	me, err := alice.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, newEmail, me.Email, "alice's reissued token still works")
}

func TestInvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.url+"/api/auth/login", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestLegacyUsernameField(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.client.Register(ctx, forumsdk.RegisterRequest{Email: "alice@x.com", Username: "alice", Password: "Abcd1234!"})
	require.NoError(t, err)

	resp, err := http.Post(ts.url+"/api/auth/login", "application/json",
		strings.NewReader(`{"username":"alice","password":"Abcd1234!"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSystemEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ctx := t.Context()

	live, err := ts.client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := ts.client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)

	_, err = ts.client.Register(ctx, forumsdk.RegisterRequest{Email: "alice@x.com", Username: "alice", Password: "Abcd1234!"})
	require.NoError(t, err)

	resp, err := http.Get(ts.url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `forum_auth_operations_total{operation="register",outcome="success"} 1`)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
