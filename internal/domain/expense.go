package domain

import "time"

// ExpenseStatus is the closed set of expense states.
type ExpenseStatus string

const (
	StatusPendente ExpenseStatus = "Pendente" // Awaiting payment
	StatusPago     ExpenseStatus = "Pago"     // Paid
)

// Valid reports whether s is a defined status.
func (s ExpenseStatus) Valid() bool {
	return s == StatusPendente || s == StatusPago
}

// Expense Model
type Expense struct {
	ID                uint          `gorm:"primaryKey"`                                 // Primary key
	UserID            string        `gorm:"index;index:idx_user_start,priority:1;size:36;not null"` // Owning user
	CategoryID        uint          `gorm:"index;not null"`                             // Foreign key to Category
	Category          Category      // Back-reference used for display only
	Name              string        `gorm:"size:100;not null"`                      // Expense name
	StartDate         time.Time     `gorm:"index:idx_user_start,priority:2;not null"` // Date of the first installment
	TotalAmount       float64       `gorm:"not null"`                               // Total amount of the expense
	Installments      int           `gorm:"not null;default:1"`                     // Number of installments
	InstallmentAmount float64       `gorm:"not null"`                               // Per-installment amount, computed in the service
	Status            ExpenseStatus `gorm:"index;size:20;not null"`                 // Expense status
	Validity          *time.Time    // Optional validity date
	NoteImageURL      string        `gorm:"size:300"` // Optional note image
	ProofImageURL     string        `gorm:"size:300"` // Optional proof image
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
