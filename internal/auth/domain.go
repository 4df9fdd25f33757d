package auth

// AdminUser is the built-in account seeded on first start; it cannot be deleted.
const AdminUser = "admin"

// docUsers is the catalog document holding username -> bcrypt hash.
const docUsers = "users"

// Credentials is a login attempt.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
