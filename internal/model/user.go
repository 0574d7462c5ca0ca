package model

import (
	"golang.org/x/crypto/bcrypt"
)

// Role codes as constants
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account. Admins belong to a company; plain users browse the public catalog.
type User struct {
	BaseModel
	Username  string   `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Password  string   `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	Role      string   `gorm:"type:varchar(10);not null;default:'user';check:chk_users_role,role IN ('admin','user')" json:"role"`
	CompanyID *uint    `gorm:"index" json:"company_id,omitempty"`
	Company   *Company `gorm:"foreignKey:CompanyID;constraint:OnDelete:SET NULL" json:"company,omitempty"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID        uint     `json:"id"`
	Username  string   `json:"username"`
	Role      string   `json:"role"`
	CompanyID *uint    `json:"company_id,omitempty"`
	Company   *Company `json:"company,omitempty"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CompanyID: u.CompanyID,
		Company:   u.Company,
	}
}
