package domain

import "time"

// VerificationCode is the one outstanding login code for an email.
// PK: email. TTL holds ExpiresAt as Unix seconds for DynamoDB expiry.
type VerificationCode struct {
	CodeID    string    `json:"id" dynamodbav:"code_id"`
	Email     string    `json:"email" dynamodbav:"email"`
	Code      string    `json:"-" dynamodbav:"code"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at"`
	Used      bool      `json:"used" dynamodbav:"used"`
	TTL       int64     `json:"-" dynamodbav:"ttl"`
}

// Expired reports whether now is past the expiry instant.
func (v *VerificationCode) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
