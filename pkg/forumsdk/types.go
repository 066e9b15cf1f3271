package forumsdk

import "time"

// ============================================================================
// Auth Types
// ============================================================================

// LoginRequest is the body of POST /api/auth/login. Identifier may be an
// email or a username; Username is accepted as an alias for older clients.
type LoginRequest struct {
	Identifier string `json:"identifier,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the body of PUT /api/auth/users/{id}. Nil fields
// are left unchanged.
type UpdateProfileRequest struct {
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
}

// AuthResponse is returned by every auth operation. Token is only present
// when the operation issued one.
type AuthResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Message  string `json:"message"`
	Success  bool   `json:"success"`
	Token    string `json:"token,omitempty"`
}

// UserResponse is the authenticated user's profile from GET /api/auth/me.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ============================================================================
// Topic Types
// ============================================================================

// TopicResponse is a topic with its current subscriber count. Subscribed
// reports whether the calling user is subscribed.
type TopicResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	Subscribers int       `json:"subscribers"`
	Subscribed  bool      `json:"subscribed"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks lists the state of each dependency checked by /readyz.
type HealthChecks struct {
	Database string `json:"database"`
}
