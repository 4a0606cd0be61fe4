package domain

import "time"

// Profile shares its key with Account and is written only by profile setup.
type Profile struct {
	ProfileID   string    `json:"id" dynamodbav:"profile_id"`
	Email       string    `json:"email" dynamodbav:"email"`
	FirstName   string    `json:"first_name" dynamodbav:"first_name"`
	LastName    string    `json:"last_name" dynamodbav:"last_name"`
	PhoneNumber *string   `json:"phone_number" dynamodbav:"phone_number"`
	Bio         *string   `json:"bio" dynamodbav:"bio"`
	AvatarRef   *string   `json:"avatar_ref" dynamodbav:"avatar_ref"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

// ProfileFields are the user-supplied profile values.
type ProfileFields struct {
	FirstName   string  `json:"firstName" validate:"required,max=100"`
	LastName    string  `json:"lastName" validate:"required,max=100"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=32"`
	Bio         *string `json:"description" validate:"omitempty,max=2000"`
}
