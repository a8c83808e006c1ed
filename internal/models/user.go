package models

import "time"

// Plan is the subscription tier of a user.
type Plan string

const (
	PlanFree      Plan = "free"
	PlanUnlimited Plan = "unlimited"
)

type User struct {
	ID                        string     `gorm:"type:varchar(36);primaryKey" bson:"id" json:"id"`
	Email                     string     `gorm:"uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash              string     `gorm:"not null" bson:"password" json:"-"`
	Name                      string     `gorm:"not null" bson:"name" json:"name"`
	Plan                      Plan       `gorm:"type:varchar(20);not null" bson:"plan" json:"plan"`
	RecipesGeneratedThisMonth int        `gorm:"not null" bson:"recipes_generated_this_month" json:"recipes_generated_this_month"`
	MonthReset                string     `gorm:"type:varchar(7);not null" bson:"month_reset" json:"-"`
	CreatedAt                 time.Time  `bson:"created_at" json:"created_at"`
	UpgradedAt                *time.Time `bson:"upgraded_at,omitempty" json:"upgraded_at,omitempty"`
}

// IsUnlimited reports whether the user is exempt from the monthly quota.
func (u *User) IsUnlimited() bool {
	return u.Plan == PlanUnlimited
}
