package models

// User is the authenticated account as reported by the remote service.
type User struct {
	ID       int64
	Username string
	Email    string
}

// UserCreate carries the registration form fields.
type UserCreate struct {
	Username string
	Email    string
	Password string
}
