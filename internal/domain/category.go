package domain

// Category Model
type Category struct {
	ID   uint   `gorm:"primaryKey"`       // Primary key
	Name string `gorm:"size:50;not null"` // Category name, shared across users
}
