package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging

	"expense_tracker/internal/auth"
	"expense_tracker/internal/services"
)

// Handlers renders the server-side pages on top of the API client.
type Handlers struct {
	client   *Client
	sessions *SessionStore
	issuer   *auth.TokenIssuer
}

// NewHandlers creates the web page handlers.
func NewHandlers(client *Client, sessions *SessionStore, issuer *auth.TokenIssuer) *Handlers {
	return &Handlers{client: client, sessions: sessions, issuer: issuer}
}

// Register wires the page routes onto the router.
func (h *Handlers) Register(r *gin.Engine, bridge *Bridge) {
	r.Use(bridge.Middleware())

	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/register", h.RegisterPage)
	r.POST("/register", h.RegisterUser)
	r.GET("/logout", h.Logout)

	private := r.Group("")
	private.Use(RequireSession())
	private.GET("/", h.Dashboard)
	private.GET("/expenses", h.ExpenseList)
	private.GET("/expenses/new", h.ExpenseForm)
	private.POST("/expenses/new", h.ExpenseCreate)
	private.GET("/expenses/:id/edit", h.ExpenseForm)
	private.POST("/expenses/:id/edit", h.ExpenseUpdate)
	private.POST("/expenses/:id/delete", h.ExpenseDelete)

	admin := r.Group("")
	admin.Use(RequireSession(), RequireAdmin())
	admin.GET("/categories", h.CategoryList)
	admin.POST("/categories", h.CategoryCreate)
	admin.POST("/categories/:id/update", h.CategoryUpdate)
	admin.POST("/categories/:id/delete", h.CategoryDelete)
	admin.GET("/admin/users", h.UserList)
	admin.POST("/admin/users/:id/roles", h.UserRoles)
}

// LoginPage renders the sign-in form.
func (h *Handlers) LoginPage(c *gin.Context) {
	if SessionFrom(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "login.tmpl", gin.H{})
}

// Login signs the user in and starts a session.
func (h *Handlers) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	pair, err := h.client.Login(c.Request.Context(), email, password)
	if err != nil {
		c.HTML(http.StatusOK, "login.tmpl", gin.H{"Error": loginErrorMessage(err), "Email": email})
		return
	}

	claims, err := h.issuer.ParseToken(pair.Token)
	if err != nil {
		logrus.WithError(err).Error("API returned an unparsable token")
		c.HTML(http.StatusOK, "login.tmpl", gin.H{"Error": "Something went wrong, try again.", "Email": email})
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), claims.Email, claims.Roles, pair)
	if err != nil {
		logrus.WithError(err).Error("failed to create session")
		c.HTML(http.StatusOK, "login.tmpl", gin.H{"Error": "Something went wrong, try again.", "Email": email})
		return
	}
	SetCookie(c, session, 0)
	c.Redirect(http.StatusFound, "/")
}

// RegisterPage renders the sign-up form.
func (h *Handlers) RegisterPage(c *gin.Context) {
	if SessionFrom(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "register.tmpl", gin.H{})
}

// RegisterUser creates an account and sends the user to the login page.
func (h *Handlers) RegisterUser(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	confirm := c.PostForm("confirmPassword")

	if err := h.client.Register(c.Request.Context(), email, password, confirm); err != nil {
		c.HTML(http.StatusOK, "register.tmpl", gin.H{"Error": err.Error(), "Email": email})
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

// Logout destroys the session.
func (h *Handlers) Logout(c *gin.Context) {
	h.sessions.Destroy(c)
	c.Redirect(http.StatusFound, "/login")
}

// Dashboard renders the stats page.
func (h *Handlers) Dashboard(c *gin.Context) {
	session := SessionFrom(c)
	stats, err := h.client.Stats(c.Request.Context(), session.Tokens.Token)
	if err != nil {
		h.renderError(c, session, err)
		return
	}
	c.HTML(http.StatusOK, "dashboard.tmpl", gin.H{
		"Session": session,
		"Stats":   stats,
	})
}

// ExpenseList renders the paged expense table with its filters.
func (h *Handlers) ExpenseList(c *gin.Context) {
	session := SessionFrom(c)

	// Pass list filters straight through to the API
	query := url.Values{}
	for _, key := range []string{"page", "pageSize", "from", "to", "categoryId", "status", "search", "sortBy", "sortDir"} {
		if v := c.Query(key); v != "" {
			query.Set(key, v)
		}
	}

	page, err := h.client.ListExpenses(c.Request.Context(), session.Tokens.Token, query)
	if err != nil {
		h.renderError(c, session, err)
		return
	}
	categories, err := h.client.Categories(c.Request.Context(), session.Tokens.Token)
	if err != nil {
		h.renderError(c, session, err)
		return
	}

	c.HTML(http.StatusOK, "expenses.tmpl", gin.H{
		"Session":    session,
		"Page":       page,
		"TotalPages": page.TotalPages(),
		"Categories": categories,
		"Query":      c.Request.URL.Query(),
	})
}

// ExpenseForm renders the create or edit form.
func (h *Handlers) ExpenseForm(c *gin.Context) {
	session := SessionFrom(c)
	categories, err := h.client.Categories(c.Request.Context(), session.Tokens.Token)
	if err != nil {
		h.renderError(c, session, err)
		return
	}

	data := gin.H{"Session": session, "Categories": categories}
	if idParam := c.Param("id"); idParam != "" {
		id, err := strconv.ParseUint(idParam, 10, 32)
		if err != nil {
			c.Redirect(http.StatusFound, "/expenses")
			return
		}
		expense, err := h.client.GetExpense(c.Request.Context(), session.Tokens.Token, uint(id))
		if err != nil {
			h.renderError(c, session, err)
			return
		}
		data["Expense"] = expense
	}
	c.HTML(http.StatusOK, "expense_form.tmpl", data)
}

// ExpenseCreate handles the create form submission.
func (h *Handlers) ExpenseCreate(c *gin.Context) {
	session := SessionFrom(c)
	input, err := expenseInputFromForm(c)
	if err != nil {
		h.expenseFormError(c, session, err.Error())
		return
	}
	if err := h.client.CreateExpense(c.Request.Context(), session.Tokens.Token, input); err != nil {
		h.expenseFormError(c, session, err.Error())
		return
	}
	c.Redirect(http.StatusFound, "/expenses")
}

// ExpenseUpdate handles the edit form submission.
func (h *Handlers) ExpenseUpdate(c *gin.Context) {
	session := SessionFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Redirect(http.StatusFound, "/expenses")
		return
	}
	input, err := expenseInputFromForm(c)
	if err != nil {
		h.expenseFormError(c, session, err.Error())
		return
	}
	if err := h.client.UpdateExpense(c.Request.Context(), session.Tokens.Token, uint(id), input); err != nil {
		h.expenseFormError(c, session, err.Error())
		return
	}
	c.Redirect(http.StatusFound, "/expenses")
}

// ExpenseDelete removes an expense and returns to the list.
func (h *Handlers) ExpenseDelete(c *gin.Context) {
	session := SessionFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err == nil {
		if err := h.client.DeleteExpense(c.Request.Context(), session.Tokens.Token, uint(id)); err != nil {
			h.renderError(c, session, err)
			return
		}
	}
	c.Redirect(http.StatusFound, "/expenses")
}

// CategoryList renders the category management page.
func (h *Handlers) CategoryList(c *gin.Context) {
	session := SessionFrom(c)
	categories, err := h.client.Categories(c.Request.Context(), session.Tokens.Token)
	if err != nil {
		h.renderError(c, session, err)
		return
	}
	c.HTML(http.StatusOK, "categories.tmpl", gin.H{
		"Session":    session,
		"Categories": categories,
		"Error":      c.Query("error"),
	})
}

// CategoryCreate handles the new-category form.
func (h *Handlers) CategoryCreate(c *gin.Context) {
	session := SessionFrom(c)
	name := strings.TrimSpace(c.PostForm("name"))
	if err := h.client.CreateCategory(c.Request.Context(), session.Tokens.Token, name); err != nil {
		c.Redirect(http.StatusFound, "/categories?error="+url.QueryEscape(err.Error()))
		return
	}
	c.Redirect(http.StatusFound, "/categories")
}

// CategoryUpdate handles the rename form.
func (h *Handlers) CategoryUpdate(c *gin.Context) {
	session := SessionFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Redirect(http.StatusFound, "/categories")
		return
	}
	name := strings.TrimSpace(c.PostForm("name"))
	if err := h.client.UpdateCategory(c.Request.Context(), session.Tokens.Token, uint(id), name); err != nil {
		c.Redirect(http.StatusFound, "/categories?error="+url.QueryEscape(err.Error()))
		return
	}
	c.Redirect(http.StatusFound, "/categories")
}

// CategoryDelete removes a category.
func (h *Handlers) CategoryDelete(c *gin.Context) {
	session := SessionFrom(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err == nil {
		if err := h.client.DeleteCategory(c.Request.Context(), session.Tokens.Token, uint(id)); err != nil {
			c.Redirect(http.StatusFound, "/categories?error="+url.QueryEscape(err.Error()))
			return
		}
	}
	c.Redirect(http.StatusFound, "/categories")
}

// UserList renders the admin user/role page.
func (h *Handlers) UserList(c *gin.Context) {
	session := SessionFrom(c)
	users, err := h.client.ListUsers(c.Request.Context(), session.Tokens.Token)
	if err != nil {
		h.renderError(c, session, err)
		return
	}
	c.HTML(http.StatusOK, "users.tmpl", gin.H{
		"Session": session,
		"Users":   users,
		"Error":   c.Query("error"),
	})
}

// UserRoles submits a role change for a user.
func (h *Handlers) UserRoles(c *gin.Context) {
	session := SessionFrom(c)
	userID := c.Param("id")
	roles := c.PostFormArray("roles")
	if err := h.client.UpdateUserRoles(c.Request.Context(), session.Tokens.Token, userID, roles); err != nil {
		c.Redirect(http.StatusFound, "/admin/users?error="+url.QueryEscape(err.Error()))
		return
	}
	c.Redirect(http.StatusFound, "/admin/users")
}

// renderError shows the shared error page, or bounces to login when the
// API no longer accepts the session's token.
func (h *Handlers) renderError(c *gin.Context, session *Session, err error) {
	if err == ErrUnauthorized {
		h.sessions.Destroy(c)
		c.Redirect(http.StatusFound, "/login")
		return
	}
	logrus.WithError(err).Error("API request failed")
	c.HTML(http.StatusInternalServerError, "error.tmpl", gin.H{
		"Session": session,
		"Message": err.Error(),
	})
}

func (h *Handlers) expenseFormError(c *gin.Context, session *Session, message string) {
	categories, err := h.client.Categories(c.Request.Context(), session.Tokens.Token)
	if err != nil {
		h.renderError(c, session, err)
		return
	}
	c.HTML(http.StatusOK, "expense_form.tmpl", gin.H{
		"Session":    session,
		"Categories": categories,
		"Error":      message,
	})
}

// expenseInputFromForm converts the HTML form fields into the API payload.
func expenseInputFromForm(c *gin.Context) (services.ExpenseInput, error) {
	var input services.ExpenseInput

	startDate, err := time.Parse("2006-01-02", c.PostForm("startDate"))
	if err != nil {
		return input, err
	}
	totalAmount, err := strconv.ParseFloat(c.PostForm("totalAmount"), 64)
	if err != nil {
		return input, err
	}
	categoryID, err := strconv.ParseUint(c.PostForm("categoryId"), 10, 32)
	if err != nil {
		return input, err
	}
	installments, _ := strconv.Atoi(c.PostForm("installments"))

	input = services.ExpenseInput{
		Name:         strings.TrimSpace(c.PostForm("name")),
		StartDate:    startDate,
		TotalAmount:  totalAmount,
		Installments: installments,
		Status:       c.PostForm("status"),
		CategoryID:   uint(categoryID),
	}
	if v := c.PostForm("validity"); v != "" {
		validity, err := time.Parse("2006-01-02", v)
		if err != nil {
			return input, err
		}
		input.Validity = &validity
	}
	return input, nil
}

func loginErrorMessage(err error) string {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Message
	}
	if err == ErrUnauthorized {
		return "Invalid email or password."
	}
	return "Something went wrong, try again."
}
