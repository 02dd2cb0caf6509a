package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"expense_tracker/internal/domain"
	"expense_tracker/internal/repo"
)

// ExpenseStore is the persistence surface the expense service needs.
type ExpenseStore interface {
	GetByID(ctx context.Context, id uint, userID string) (*domain.Expense, error)
	ListPaged(ctx context.Context, q repo.ExpenseQuery, userID string) (*repo.PagedResult[domain.Expense], error)
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Expense, error)
	Create(ctx context.Context, expense *domain.Expense) error
	Update(ctx context.Context, expense *domain.Expense) error
	Delete(ctx context.Context, id uint, userID string) (*domain.Expense, error)
}

// CategoryGetter is the slice of the category store the expense
// service needs for validation.
type CategoryGetter interface {
	GetByID(ctx context.Context, id uint) (*domain.Category, error)
}

// ExpenseInput is the payload for expense create/update.
type ExpenseInput struct {
	Name          string     `json:"name" binding:"required,min=3,max=100"`
	StartDate     time.Time  `json:"startDate" binding:"required"`
	TotalAmount   float64    `json:"totalAmount" binding:"required"`
	Installments  int        `json:"installments"`
	Status        string     `json:"status" binding:"required"`
	Validity      *time.Time `json:"validity"`
	NoteImageURL  string     `json:"noteImageUrl" binding:"max=300"`
	ProofImageURL string     `json:"proofImageUrl" binding:"max=300"`
	CategoryID    uint       `json:"categoryId" binding:"required"`
}

// ExpenseDTO is the API representation of an expense.
type ExpenseDTO struct {
	ExpenseID         uint       `json:"expenseId"`
	Name              string     `json:"name"`
	StartDate         time.Time  `json:"startDate"`
	TotalAmount       float64    `json:"totalAmount"`
	Installments      int        `json:"installments"`
	InstallmentAmount float64    `json:"installmentAmount"`
	Status            string     `json:"status"`
	Validity          *time.Time `json:"validity,omitempty"`
	NoteImageURL      string     `json:"noteImageUrl,omitempty"`
	ProofImageURL     string     `json:"proofImageUrl,omitempty"`
	CategoryID        uint       `json:"categoryId"`
	CategoryName      string     `json:"categoryName,omitempty"`
}

// DashboardStats aggregates expense totals for the dashboard.
type DashboardStats struct {
	ByCategory []CategorySum `json:"byCategory"`
	ByMonth    []MonthSum    `json:"byMonth"`
}

// CategorySum is a per-category total.
type CategorySum struct {
	CategoryName string  `json:"categoryName"`
	Total        float64 `json:"total"`
}

// MonthSum is a per-month total.
type MonthSum struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// ExpenseService applies the expense business rules.
type ExpenseService struct {
	expenses   ExpenseStore
	categories CategoryGetter
}

// NewExpenseService creates an ExpenseService.
func NewExpenseService(expenses ExpenseStore, categories CategoryGetter) *ExpenseService {
	return &ExpenseService{expenses: expenses, categories: categories}
}

// InstallmentAmount splits total across installments, rounded to two
// decimals. Installment counts below 1 are coerced to 1.
func InstallmentAmount(total float64, installments int) float64 {
	if installments < 1 {
		installments = 1
	}
	return math.Round(total/float64(installments)*100) / 100
}

// ListPaged returns one page of the user's expenses. Page and page size
// are clamped the same way for every caller.
func (s *ExpenseService) ListPaged(ctx context.Context, q repo.ExpenseQuery, userID string) (*repo.PagedResult[ExpenseDTO], error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, NewBusinessError("start of the date range cannot be after its end")
	}

	page, err := s.expenses.ListPaged(ctx, q, userID)
	if err != nil {
		return nil, err
	}

	items := make([]ExpenseDTO, len(page.Items))
	for i := range page.Items {
		items[i] = toDTO(&page.Items[i])
	}
	return &repo.PagedResult[ExpenseDTO]{
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalCount: page.TotalCount,
		Items:      items,
	}, nil
}

// Get returns the user's expense by id.
func (s *ExpenseService) Get(ctx context.Context, id uint, userID string) (*ExpenseDTO, error) {
	expense, err := s.expenses.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	dto := toDTO(expense)
	return &dto, nil
}

// Create validates and stores a new expense for the user.
func (s *ExpenseService) Create(ctx context.Context, input ExpenseInput, userID string) (*ExpenseDTO, error) {
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}
	expense := fromInput(input, userID)
	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, err
	}
	return s.Get(ctx, expense.ID, userID)
}

// Update validates and stores changes to the user's expense.
// Editing another user's expense behaves as not found.
func (s *ExpenseService) Update(ctx context.Context, id uint, input ExpenseInput, userID string) (*ExpenseDTO, error) {
	existing, err := s.expenses.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}
	updated := fromInput(input, userID)
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	if err := s.expenses.Update(ctx, updated); err != nil {
		return nil, err
	}
	return s.Get(ctx, updated.ID, userID)
}

// Delete removes the user's expense by id.
func (s *ExpenseService) Delete(ctx context.Context, id uint, userID string) error {
	_, err := s.expenses.Delete(ctx, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Stats aggregates the user's expenses by category and by month over
// [from, to].
func (s *ExpenseService) Stats(ctx context.Context, userID string, from, to time.Time) (*DashboardStats, error) {
	expenses, err := s.expenses.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	byCategory := map[string]float64{}
	type ym struct{ year, month int }
	byMonth := map[ym]float64{}
	var categoryOrder []string
	var monthOrder []ym

	for i := range expenses {
		e := &expenses[i]
		name := e.Category.Name
		if _, seen := byCategory[name]; !seen {
			categoryOrder = append(categoryOrder, name)
		}
		byCategory[name] += e.TotalAmount

		key := ym{e.StartDate.Year(), int(e.StartDate.Month())}
		if _, seen := byMonth[key]; !seen {
			monthOrder = append(monthOrder, key)
		}
		byMonth[key] += e.TotalAmount
	}

	stats := &DashboardStats{}
	for _, name := range categoryOrder {
		stats.ByCategory = append(stats.ByCategory, CategorySum{CategoryName: name, Total: round2(byCategory[name])})
	}
	for _, key := range monthOrder {
		stats.ByMonth = append(stats.ByMonth, MonthSum{
			Year:  key.year,
			Month: key.month,
			Label: fmt.Sprintf("%02d/%d", key.month, key.year),
			Total: round2(byMonth[key]),
		})
	}
	return stats, nil
}

// Export returns the user's expenses in the date range as CSV rows,
// header included.
func (s *ExpenseService) Export(ctx context.Context, userID string, from, to time.Time) ([][]string, error) {
	expenses, err := s.expenses.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	rows := [][]string{{"Name", "Category", "StartDate", "TotalAmount", "Installments", "InstallmentAmount", "Status"}}
	for i := range expenses {
		e := &expenses[i]
		rows = append(rows, []string{
			e.Name,
			e.Category.Name,
			e.StartDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f", e.TotalAmount),
			fmt.Sprintf("%d", e.Installments),
			fmt.Sprintf("%.2f", e.InstallmentAmount),
			string(e.Status),
		})
	}
	return rows, nil
}

// validate applies the expense business rules and normalizes the
// installment count.
func (s *ExpenseService) validate(ctx context.Context, input *ExpenseInput) error {
	if !domain.ExpenseStatus(input.Status).Valid() {
		return NewBusinessError("invalid status")
	}
	if input.TotalAmount <= 0 {
		return NewBusinessError("total amount must be greater than zero")
	}
	if dateOnly(input.StartDate).After(dateOnly(time.Now())) {
		return NewBusinessError("start date cannot be in the future")
	}
	if input.Validity != nil && input.Validity.Before(input.StartDate) {
		return NewBusinessError("validity date cannot be before the start date")
	}
	if input.Installments <= 0 {
		input.Installments = 1
	}
	if input.Installments > 120 {
		return NewBusinessError("installments must be at most 120")
	}
	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewBusinessError("category does not exist")
		}
		return err
	}
	return nil
}

// fromInput builds the entity, computing the per-installment amount.
func fromInput(input ExpenseInput, userID string) *domain.Expense {
	return &domain.Expense{
		UserID:            userID,
		CategoryID:        input.CategoryID,
		Name:              input.Name,
		StartDate:         input.StartDate,
		TotalAmount:       input.TotalAmount,
		Installments:      input.Installments,
		InstallmentAmount: InstallmentAmount(input.TotalAmount, input.Installments),
		Status:            domain.ExpenseStatus(input.Status),
		Validity:          input.Validity,
		NoteImageURL:      input.NoteImageURL,
		ProofImageURL:     input.ProofImageURL,
	}
}

func toDTO(e *domain.Expense) ExpenseDTO {
	return ExpenseDTO{
		ExpenseID:         e.ID,
		Name:              e.Name,
		StartDate:         e.StartDate,
		TotalAmount:       e.TotalAmount,
		Installments:      e.Installments,
		InstallmentAmount: e.InstallmentAmount,
		Status:            string(e.Status),
		Validity:          e.Validity,
		NoteImageURL:      e.NoteImageURL,
		ProofImageURL:     e.ProofImageURL,
		CategoryID:        e.CategoryID,
		CategoryName:      e.Category.Name,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// dateOnly strips the time-of-day so date comparisons ignore clocks
// and time zones of the incoming payload.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
