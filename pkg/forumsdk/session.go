package forumsdk

import (
	"context"
	"net/http"
	"net/url"
	"sync"
)

// Session is an authenticated session. It is safe for concurrent use.
type Session struct {
	client *SDKClient

	mu       sync.RWMutex
	token    string
	userID   string
	username string
	email    string
}

func newSession(c *SDKClient, auth *AuthResponse) *Session {
	s := &Session{client: c}
	s.update(auth)
	return s
}

// update stores the identity from auth and swaps in its token if it has one.
func (s *Session) update(auth *AuthResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if auth.Token != "" {
		s.token = auth.Token
	}
	if auth.ID != "" {
		s.userID = auth.ID
	}
	s.username = auth.Username
	s.email = auth.Email
}

// Token returns the current bearer token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// UserID returns the authenticated user's id.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Email returns the authenticated user's email, which is also the token subject.
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// Username returns the authenticated user's username.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *Session) do(ctx context.Context, method, path string, body, target any, expectedStatus int) error {
	resp, err := s.client.doRequest(ctx, method, path, s.Token(), body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, target, expectedStatus)
}

// ============================================================================
// Account
// ============================================================================

// Refresh exchanges the current token for a fresh one.
func (s *Session) Refresh(ctx context.Context) (*AuthResponse, error) {
	var auth AuthResponse
	if err := s.do(ctx, http.MethodPost, "/api/auth/refresh", nil, &auth, http.StatusOK); err != nil {
		return nil, err
	}
	s.update(&auth)
	return &auth, nil
}

// Me returns the authenticated user's profile.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	var me UserResponse
	if err := s.do(ctx, http.MethodGet, "/api/auth/me", nil, &me, http.StatusOK); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.userID, s.username, s.email = me.ID, me.Username, me.Email
	s.mu.Unlock()
	return &me, nil
}

// UpdateProfile changes the non-nil fields of req. When the email changes
// the server issues a new token and the session switches to it.
func (s *Session) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*AuthResponse, error) {
	var auth AuthResponse
	path := "/api/auth/users/" + url.PathEscape(s.UserID())
	if err := s.do(ctx, http.MethodPut, path, req, &auth, http.StatusOK); err != nil {
		return nil, err
	}
	s.update(&auth)
	return &auth, nil
}

// ============================================================================
// Topics
// ============================================================================

// ListTopics returns every topic, newest first.
func (s *Session) ListTopics(ctx context.Context) ([]TopicResponse, error) {
	var topics []TopicResponse
	if err := s.do(ctx, http.MethodGet, "/api/topics", nil, &topics, http.StatusOK); err != nil {
		return nil, err
	}
	return topics, nil
}

// ListSubscribed returns the topics the user is subscribed to, newest first.
func (s *Session) ListSubscribed(ctx context.Context) ([]TopicResponse, error) {
	var topics []TopicResponse
	if err := s.do(ctx, http.MethodGet, "/api/topics/subscribed", nil, &topics, http.StatusOK); err != nil {
		return nil, err
	}
	return topics, nil
}

// Subscribe subscribes the user to a topic.
func (s *Session) Subscribe(ctx context.Context, topicID string) (*TopicResponse, error) {
	var topic TopicResponse
	path := "/api/topics/" + url.PathEscape(topicID) + "/subscribe"
	if err := s.do(ctx, http.MethodPost, path, nil, &topic, http.StatusOK); err != nil {
		return nil, err
	}
	return &topic, nil
}

// Unsubscribe removes the user's subscription to a topic.
func (s *Session) Unsubscribe(ctx context.Context, topicID string) (*TopicResponse, error) {
	var topic TopicResponse
	path := "/api/topics/" + url.PathEscape(topicID) + "/unsubscribe"
	if err := s.do(ctx, http.MethodDelete, path, nil, &topic, http.StatusOK); err != nil {
		return nil, err
	}
	return &topic, nil
}
