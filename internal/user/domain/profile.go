package domain

import "time"

// Profile is the public identity owned by the user-service. Exactly one
// profile exists per credential; the unique constraint on credential_id is
// the final arbiter under concurrent redelivery.
type Profile struct {
	ID           string    `json:"id"`
	CredentialID string    `json:"credential_id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Nickname     string    `json:"nickname"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}
