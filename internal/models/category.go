package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category represents a transaction category. System categories have no
// owner and are shared by every student.
type Category struct {
	Base
	StudentID *string      `gorm:"type:uuid;index" json:"student_id,omitempty"`
	Name      string       `gorm:"not null" json:"name"`
	Type      CategoryType `gorm:"not null" json:"type"`
	Icon      string       `json:"icon,omitempty"`
	Color     string       `json:"color,omitempty"`
	IsSystem  bool         `gorm:"not null;default:false" json:"is_system"`
}
