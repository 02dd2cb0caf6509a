package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"expense_tracker/internal/repo"
	"expense_tracker/internal/services"
)

// ErrUnauthorized is returned when the API rejects the bearer token.
var ErrUnauthorized = errors.New("unauthorized")

// APIError carries an error message returned by the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client is a thin HTTP client for the expense API used by the web front-end.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the given API base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (services.TokenPair, error) {
	var pair services.TokenPair
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &pair)
	return pair, err
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, email, password, confirm string) error {
	body := map[string]string{"email": email, "password": password, "confirmPassword": confirm}
	return c.do(ctx, http.MethodPost, "/api/auth/register", "", body, nil)
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (services.TokenPair, error) {
	var pair services.TokenPair
	body := map[string]string{"refreshToken": refreshToken}
	err := c.do(ctx, http.MethodPost, "/api/auth/refresh", "", body, &pair)
	return pair, err
}

// ListExpenses fetches a page of expenses. The query values pass through as-is.
func (c *Client) ListExpenses(ctx context.Context, token string, query url.Values) (repo.PagedResult[services.ExpenseDTO], error) {
	var page repo.PagedResult[services.ExpenseDTO]
	path := "/api/expense"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	err := c.do(ctx, http.MethodGet, path, token, nil, &page)
	return page, err
}

// GetExpense fetches a single expense by id.
func (c *Client) GetExpense(ctx context.Context, token string, id uint) (services.ExpenseDTO, error) {
	var dto services.ExpenseDTO
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/expense/%d", id), token, nil, &dto)
	return dto, err
}

// CreateExpense creates an expense.
func (c *Client) CreateExpense(ctx context.Context, token string, input services.ExpenseInput) error {
	return c.do(ctx, http.MethodPost, "/api/expense", token, input, nil)
}

// UpdateExpense updates an expense.
func (c *Client) UpdateExpense(ctx context.Context, token string, id uint, input services.ExpenseInput) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/expense/%d", id), token, input, nil)
}

// DeleteExpense deletes an expense.
func (c *Client) DeleteExpense(ctx context.Context, token string, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/expense/%d", id), token, nil, nil)
}

// Stats fetches the dashboard aggregation.
func (c *Client) Stats(ctx context.Context, token string) (services.DashboardStats, error) {
	var stats services.DashboardStats
	err := c.do(ctx, http.MethodGet, "/api/expense/stats", token, nil, &stats)
	return stats, err
}

// Categories fetches all categories.
func (c *Client) Categories(ctx context.Context, token string) ([]services.CategoryDTO, error) {
	var categories []services.CategoryDTO
	err := c.do(ctx, http.MethodGet, "/api/category", token, nil, &categories)
	return categories, err
}

// CreateCategory creates a category (admin only).
func (c *Client) CreateCategory(ctx context.Context, token, name string) error {
	return c.do(ctx, http.MethodPost, "/api/category", token, map[string]string{"name": name}, nil)
}

// UpdateCategory renames a category (admin only).
func (c *Client) UpdateCategory(ctx context.Context, token string, id uint, name string) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/category/%d", id), token, map[string]string{"name": name}, nil)
}

// DeleteCategory removes a category (admin only).
func (c *Client) DeleteCategory(ctx context.Context, token string, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/category/%d", id), token, nil, nil)
}

// ListUsers fetches all users with their roles (admin only).
func (c *Client) ListUsers(ctx context.Context, token string) ([]services.UserRolesDTO, error) {
	var users []services.UserRolesDTO
	err := c.do(ctx, http.MethodGet, "/api/admin/users", token, nil, &users)
	return users, err
}

// UpdateUserRoles replaces a user's role set (admin only).
func (c *Client) UpdateUserRoles(ctx context.Context, token, userID string, roles []string) error {
	body := map[string][]string{"roles": roles}
	return c.do(ctx, http.MethodPost, "/api/admin/users/"+userID+"/roles", token, body, nil)
}

// do performs a JSON request and decodes the response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
