package domain

import "time"

// User ids are supplied by the caller (a messaging-platform identifier),
// never generated here.
type User struct {
	ID          int64
	Name        string
	BirthDate   *time.Time
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type UserSnapshot struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
