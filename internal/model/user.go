// internal/model/user.go
package model

// User is the local record of an identity issued by the auth provider. Only
// the fields needed for membership and attribution are kept.
type User struct {
	Base
	Email string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name  string `gorm:"type:varchar(255);not null" json:"name"`
}
