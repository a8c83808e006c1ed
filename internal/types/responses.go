package types

import (
	"time"

	"github.com/pageza/smartcooking/backend/internal/models"
)

// UserResponse is the public view of a user
type UserResponse struct {
	ID                        string      `json:"id"`
	Email                     string      `json:"email"`
	Name                      string      `json:"name"`
	Plan                      models.Plan `json:"plan"`
	RecipesGeneratedThisMonth int         `json:"recipes_generated_this_month"`
	CreatedAt                 time.Time   `json:"created_at"`
}

// NewUserResponse builds the public view of u
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:                        u.ID,
		Email:                     u.Email,
		Name:                      u.Name,
		Plan:                      u.Plan,
		RecipesGeneratedThisMonth: u.RecipesGeneratedThisMonth,
		CreatedAt:                 u.CreatedAt,
	}
}

// TokenResponse is returned by register and login
type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// SharedRecipe is the public view of a recipe. It never carries the owner.
type SharedRecipe struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Ingredients   []string  `json:"ingredients"`
	Instructions  []string  `json:"instructions"`
	PrepTime      string    `json:"prep_time"`
	CookTime      string    `json:"cook_time"`
	Servings      int       `json:"servings"`
	Category      string    `json:"category"`
	Tips          *string   `json:"tips"`
	Substitutions []string  `json:"substitutions"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewSharedRecipe builds the public view of r
func NewSharedRecipe(r *models.Recipe) *SharedRecipe {
	return &SharedRecipe{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Ingredients:   r.Ingredients,
		Instructions:  r.Instructions,
		PrepTime:      r.PrepTime,
		CookTime:      r.CookTime,
		Servings:      r.Servings,
		Category:      r.Category,
		Tips:          r.Tips,
		Substitutions: r.Substitutions,
		CreatedAt:     r.CreatedAt,
	}
}

// CheckoutResponse carries the hosted checkout page for a new session
type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// PaymentStatusResponse reports the live provider status of a session
type PaymentStatusResponse struct {
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	AmountTotal   float64 `json:"amount_total"`
	Currency      string  `json:"currency"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}
