package models

import "time"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type Organization struct {
	ID                 int       `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	HashedPassword     []byte    `json:"-"`
	SubscriptionStatus string    `json:"subscription_status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// RiskAssessment is advisory output from the security gate; it never blocks
// a request on its own.
type RiskAssessment struct {
	RiskScore int    `json:"riskScore"`
	Country   string `json:"country"`
	Allowed   bool   `json:"allowed"`
}
