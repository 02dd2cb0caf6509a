package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"expense_tracker/internal/domain"
)

// ExpenseQuery carries the paging, filtering and sorting parameters of
// the expense list endpoint.
type ExpenseQuery struct {
	Page       int
	PageSize   int
	From       *time.Time
	To         *time.Time
	CategoryID *uint
	Status     string
	Search     string
	SortBy     string
	SortDir    string
}

// ExpenseRepo persists expenses.
type ExpenseRepo struct {
	db *gorm.DB
}

// NewExpenseRepo creates an ExpenseRepo.
func NewExpenseRepo(db *gorm.DB) *ExpenseRepo {
	return &ExpenseRepo{db: db}
}

// GetByID finds the user's expense by id. Cross-user access behaves as not found.
func (r *ExpenseRepo) GetByID(ctx context.Context, id uint, userID string) (*domain.Expense, error) {
	var expense domain.Expense
	err := r.db.WithContext(ctx).Preload("Category").
		Where("id = ? AND user_id = ?", id, userID).
		First(&expense).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &expense, nil
}

// ListPaged returns one page of the user's expenses matching the query.
func (r *ExpenseRepo) ListPaged(ctx context.Context, q ExpenseQuery, userID string) (*PagedResult[domain.Expense], error) {
	query := r.db.WithContext(ctx).Model(&domain.Expense{}).Where("user_id = ?", userID)

	if q.From != nil {
		query = query.Where("start_date >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("start_date <= ?", *q.To)
	}
	if q.CategoryID != nil {
		query = query.Where("category_id = ?", *q.CategoryID)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		query = query.Where("name LIKE ?", "%"+s+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (q.Page - 1) * q.PageSize
	var items []domain.Expense
	err := query.Preload("Category").
		Order(orderClause(q.SortBy, q.SortDir)).
		Offset(offset).Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &PagedResult[domain.Expense]{
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalCount: total,
		Items:      items,
	}, nil
}

// orderClause maps the requested sort column to a whitelisted ORDER BY.
func orderClause(sortBy, sortDir string) string {
	dir := "desc"
	if strings.EqualFold(sortDir, "asc") {
		dir = "asc"
	}
	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case "name":
		return "name " + dir
	case "totalamount":
		return "total_amount " + dir
	case "status":
		return "status " + dir
	case "validity":
		return "validity " + dir
	default:
		return "start_date " + dir
	}
}

// ListRange returns the user's expenses with a start date inside [from, to],
// used for dashboard aggregation and CSV export.
func (r *ExpenseRepo) ListRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Expense, error) {
	var items []domain.Expense
	err := r.db.WithContext(ctx).Preload("Category").
		Where("user_id = ? AND start_date >= ? AND start_date <= ?", userID, from, to).
		Order("start_date").
		Find(&items).Error
	return items, err
}

// Create inserts a new expense.
func (r *ExpenseRepo) Create(ctx context.Context, expense *domain.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

// Update saves changes to an expense.
func (r *ExpenseRepo) Update(ctx context.Context, expense *domain.Expense) error {
	return r.db.WithContext(ctx).Omit("Category").Save(expense).Error
}

// Delete removes the user's expense by id and returns the deleted row.
func (r *ExpenseRepo) Delete(ctx context.Context, id uint, userID string) (*domain.Expense, error) {
	expense, err := r.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Delete(&domain.Expense{}, expense.ID).Error; err != nil {
		return nil, err
	}
	return expense, nil
}
