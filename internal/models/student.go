package models

import "github.com/shopspring/decimal"

// Student is the profile of an account holder. Identity and credentials live
// with the auth service; this record carries what the forecasting core reads.
type Student struct {
	Base
	Email            string          `gorm:"uniqueIndex;not null" json:"email"`
	FullName         string          `json:"full_name"`
	University       string          `json:"university,omitempty"`
	YearOfStudy      int             `json:"year_of_study"`
	HasScholarship   bool            `json:"has_scholarship"`
	LivesOnCampus    bool            `json:"lives_on_campus"`
	MonthlyAllowance decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"monthly_allowance"`
	Currency         string          `gorm:"size:3;not null;default:'IDR'" json:"currency"`
	IsActive         bool            `gorm:"default:true" json:"is_active"`
}
