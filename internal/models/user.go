package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserRole string

const (
	RoleOwner   UserRole = "owner"
	RoleManager UserRole = "manager"
	RoleWaiter  UserRole = "waiter"
)

// User is the logged-in identity carried in the session token. It is not persisted.
type User struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Role UserRole `json:"role"`
}

type StaffPerformance struct {
	Attendance         int       `json:"attendance"`
	SalesSkills        int       `json:"salesSkills"`
	ClientSatisfaction int       `json:"clientSatisfaction"`
	Honesty            int       `json:"honesty"`
	LastEvaluation     time.Time `json:"lastEvaluation"`
	Complaints         int       `json:"complaints"`
}

type StaffMember struct {
	ID       string `gorm:"primaryKey;size:64" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Username string `gorm:"size:50;uniqueIndex;not null" json:"username"`
	// AccessCode holds a bcrypt hash. Backups from older versions may carry the plain code.
	AccessCode          string           `gorm:"size:100;not null" json:"accessCode"`
	Role                string           `gorm:"size:50" json:"role"`
	Performance         StaffPerformance `gorm:"embedded;embeddedPrefix:perf_" json:"performance"`
	TotalSalesGenerated decimal.Decimal  `gorm:"type:numeric(14,2)" json:"totalSalesGenerated"`
	IsActive            bool             `json:"isActive"`
}
