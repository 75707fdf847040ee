package model

// User is a lab member who can hold and book equipment.  Reminders are
// addressed to Email and greet DisplayName when it is set.
type User struct {
	ID          uint64 `db:"id" json:"id"`                     // users.id
	Email       string `db:"email" json:"email"`               // users.email
	DisplayName string `db:"display_name" json:"display_name"` // users.display_name
}
