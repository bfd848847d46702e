package domain

import "time"

// Profile es la cuenta de un usuario verificado.
type Profile struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Bio             string     `json:"bio,omitempty"`
	ProfilePicture  string     `json:"profile_picture,omitempty"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
