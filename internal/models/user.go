package models

// User is a portal account. Users are never hard-deleted.
type User struct {
	Entity
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName    string `gorm:"size:100" json:"first_name"`
	LastName     string `gorm:"size:100" json:"last_name"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
}

// TableName sets the table name.
func (User) TableName() string {
	return "users"
}
