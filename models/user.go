package models

// User represents a user account in the system. Credentials never leave the
// data layer.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
