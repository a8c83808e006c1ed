package models

import "time"

// Recipe is a generated recipe. Rows are written once and never updated.
type Recipe struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" bson:"id" json:"id"`
	Title         string     `gorm:"not null" bson:"title" json:"title"`
	Description   string     `gorm:"type:text" bson:"description" json:"description"`
	Ingredients   StringList `gorm:"not null" bson:"ingredients" json:"ingredients"`
	Instructions  StringList `gorm:"not null" bson:"instructions" json:"instructions"`
	PrepTime      string     `gorm:"size:100" bson:"prep_time" json:"prep_time"`
	CookTime      string     `gorm:"size:100" bson:"cook_time" json:"cook_time"`
	Servings      int        `gorm:"not null" bson:"servings" json:"servings"`
	Category      string     `gorm:"size:50" bson:"category" json:"category"`
	Tips          *string    `gorm:"type:text" bson:"tips" json:"tips"`
	Substitutions StringList `bson:"substitutions" json:"substitutions"`
	CreatedAt     time.Time  `gorm:"index" bson:"created_at" json:"created_at"`
	UserID        string     `gorm:"type:varchar(36);not null;index" bson:"user_id" json:"user_id"`
}

// SavedRecipe is a user's private copy of a recipe's display fields.
type SavedRecipe struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" bson:"id" json:"id"`
	RecipeID      string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_saved_recipe_user" bson:"recipe_id" json:"recipe_id"`
	UserID        string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_saved_recipe_user;index" bson:"user_id" json:"-"`
	Title         string     `gorm:"not null" bson:"title" json:"title"`
	Description   string     `gorm:"type:text" bson:"description" json:"description"`
	Ingredients   StringList `gorm:"not null" bson:"ingredients" json:"ingredients"`
	Instructions  StringList `gorm:"not null" bson:"instructions" json:"instructions"`
	PrepTime      string     `gorm:"size:100" bson:"prep_time" json:"prep_time"`
	CookTime      string     `gorm:"size:100" bson:"cook_time" json:"cook_time"`
	Servings      int        `gorm:"not null" bson:"servings" json:"servings"`
	Category      string     `gorm:"size:50" bson:"category" json:"category"`
	Tips          *string    `gorm:"type:text" bson:"tips" json:"tips"`
	Substitutions StringList `bson:"substitutions" json:"substitutions"`
	SavedAt       time.Time  `gorm:"index" bson:"saved_at" json:"saved_at"`
}

// NewSavedRecipe copies the display fields of r into a saved entry owned by userID.
func NewSavedRecipe(id, userID string, r *Recipe, savedAt time.Time) *SavedRecipe {
	return &SavedRecipe{
		ID:            id,
		RecipeID:      r.ID,
		UserID:        userID,
		Title:         r.Title,
		Description:   r.Description,
		Ingredients:   append(StringList{}, r.Ingredients...),
		Instructions:  append(StringList{}, r.Instructions...),
		PrepTime:      r.PrepTime,
		CookTime:      r.CookTime,
		Servings:      r.Servings,
		Category:      r.Category,
		Tips:          r.Tips,
		Substitutions: cloneOptional(r.Substitutions),
		SavedAt:       savedAt,
	}
}

func (SavedRecipe) TableName() string {
	return "saved_recipes"
}

func cloneOptional(l StringList) StringList {
	if l == nil {
		return nil
	}
	return append(StringList{}, l...)
}
