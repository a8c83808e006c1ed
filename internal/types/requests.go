package types

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// GenerateRecipeRequest represents the request body for recipe generation.
// Category defaults to salato and Servings to 4 when omitted.
type GenerateRecipeRequest struct {
	Ingredients []string `json:"ingredients" binding:"required,min=1"`
	Category    string   `json:"category"`
	Servings    int      `json:"servings" binding:"omitempty,min=1,max=100"`
}

// CheckoutRequest represents the request body for starting a checkout
type CheckoutRequest struct {
	OriginURL string `json:"origin_url" binding:"required,url"`
}
