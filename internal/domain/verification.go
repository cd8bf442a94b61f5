package domain

// VerificationCode is a password-recovery entry keyed by the account email.
// At most one live entry exists per email; issuing a new code overwrites any
// prior entry. IssuedExpiry bounds the verify step, VerifiedExpiry (set only
// after a successful verify) bounds the reset step. Expiries are Unix
// seconds; IssuedExpiry doubles as the DynamoDB TTL attribute.
type VerificationCode struct {
	Code           string `json:"code" dynamodbav:"code"`
	IssuedExpiry   int64  `json:"issued_expiry" dynamodbav:"issued_expiry"`
	Verified       bool   `json:"verified" dynamodbav:"verified"`
	VerifiedExpiry int64  `json:"verified_expiry,omitempty" dynamodbav:"verified_expiry"`
}
