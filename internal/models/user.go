package models

import "time"

// User represents a registered user
type User struct {
	ID         string    `json:"id" db:"id"`
	FullName   string    `json:"fullName" db:"full_name"`
	Number     string    `json:"number" db:"number"`
	Email      string    `json:"email" db:"email"`
	Password   string    `json:"-" db:"password_hash"` // Never expose in JSON
	ProfilePic *string   `json:"profilePic,omitempty" db:"profile_pic"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// UserResponse is what we send to clients (without sensitive data)
type UserResponse struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	Number     string    `json:"number"`
	Email      string    `json:"email"`
	ProfilePic *string   `json:"profilePic,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:         u.ID,
		FullName:   u.FullName,
		Number:     u.Number,
		Email:      u.Email,
		ProfilePic: u.ProfilePic,
		CreatedAt:  u.CreatedAt,
	}
}
