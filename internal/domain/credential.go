package domain

import "time"

// Credential is the one-per-email OTP record. Email is the partition key;
// issuing a new code replaces the whole record, so at most one live code
// exists per address at any time.
type Credential struct {
	Email     string    `json:"email" dynamodbav:"email"`
	Code      string    `json:"-" dynamodbav:"code"`
	IssuedAt  time.Time `json:"issued_at" dynamodbav:"issued_at"`
	ExpiresAt int64     `json:"-" dynamodbav:"expires_at,omitempty"` // unix seconds, consumed by DynamoDB TTL only
}
