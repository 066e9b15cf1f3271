package domain

import "time"

// User is a registered forum account. The email is the authentication
// principal carried as the session token subject; the username is the
// display name and an alternate login identifier.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string // argon2id PHC string, or a legacy bcrypt digest
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Is reports whether u and other are the same account. Identity is the id
// alone; two snapshots of one user taken before and after a profile change
// are still the same user.
func (u User) Is(other User) bool {
	return u.ID != "" && u.ID == other.ID
}
