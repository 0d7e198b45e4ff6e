package domain

import "time"

// Delivery is an append-only audit record of an OTP sent to a recipient.
// The code itself is never recorded here.
type Delivery struct {
	DeliveryID string    `json:"id" dynamodbav:"delivery_id"`
	Email      string    `json:"email" dynamodbav:"email"`
	Channel    string    `json:"channel" dynamodbav:"channel"` // "email"
	Subject    string    `json:"subject" dynamodbav:"subject"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}
