package user

// Role controls access to the admin panel.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is a portal account. Password is the stored credential and is
// stripped before the record leaves the API boundary.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Password   string `json:"password,omitempty"`
	Role       Role   `json:"role"`
	FullName   string `json:"fullName"`
	Department string `json:"department"`
}

// Redacted returns a copy safe to serialize in responses.
func (u User) Redacted() User {
	u.Password = ""
	return u
}
