package user

import (
	"time"
)

type Role string

const (
	RoleProfessor Role = "professor"
	RoleStudent   Role = "student"
)

// User covers both account kinds. Professors sign in with a username and
// password; students sign in with their student ID (stored as Username) plus
// a weekly access code, so their PasswordHash stays empty.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	PasswordHash string    `gorm:"size:128"`
	Role         Role      `gorm:"type:varchar(10);not null;default:'student'" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MinStudentIDLength guards against typos and junk sign-ins.
const MinStudentIDLength = 6

// ValidStudentID reports whether an ID is acceptable for student sign-in.
func ValidStudentID(id string) bool {
	return len(id) >= MinStudentIDLength
}
