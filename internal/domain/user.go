package domain

import "time"

// Role tags. Anything outside this set is normalized to RoleMerchant at
// registration.
const (
	RoleMerchant = "merchant"
	RoleAdmin    = "admin"
)

// Account statuses. Set at creation, never mutated by the auth flows.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type User struct {
	UserID       int64     `json:"user_id" dynamodbav:"user_id"`
	Username     string    `json:"username" dynamodbav:"username"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Nickname     string    `json:"nickname" dynamodbav:"nickname"`
	Email        string    `json:"email" dynamodbav:"email"`
	Phone        string    `json:"phone,omitempty" dynamodbav:"phone"`
	Avatar       string    `json:"avatar,omitempty" dynamodbav:"avatar"`
	Role         string    `json:"role" dynamodbav:"role"`
	Status       string    `json:"status" dynamodbav:"status"`
	CreatedAt    time.Time `json:"create_time" dynamodbav:"created_at"`
}

// PublicUser is the projection returned to clients. It never carries the
// password hash.
type PublicUser struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"create_time"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		UserID:    u.UserID,
		Username:  u.Username,
		Nickname:  u.Nickname,
		Email:     u.Email,
		Phone:     u.Phone,
		Avatar:    u.Avatar,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Nickname string `json:"nickname"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}
