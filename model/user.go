package model

import "time"

type User struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	UserName string `gorm:"column:user_name;type:varchar(50);not null;unique" json:"user_name"`

	Password string `gorm:"column:pass_word;type:varchar(255);not null" json:"-"`

	Email string `gorm:"column:email;type:varchar(255);not null;unique" json:"email"`

	NickName string `gorm:"column:nick_name;type:varchar(80);not null;default:''" json:"nick_name"`

	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "user_db"
}

// DisplayName returns the nickname, falling back to the user name.
func (u User) DisplayName() string {
	if u.NickName != "" {
		return u.NickName
	}
	return u.UserName
}
