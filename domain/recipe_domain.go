package domain

import (
	"errors"
)

var (
	MessageSuccessGetRecipes           = "success get recipes"
	MessageSuccessGetRecipeDetail      = "success get recipe detail"
	MessageSuccessCreateRecipe         = "recipe created successfully"
	MessageSuccessUpdateRecipe         = "recipe updated successfully"
	MessageSuccessDeleteRecipe         = "recipe deleted successfully"
	MessageSuccessAddFavorite          = "recipe added to favorites"
	MessageSuccessRemoveFavorite       = "recipe removed from favorites"
	MessageSuccessAddShoppingCart      = "recipe added to shopping cart"
	MessageSuccessRemoveShoppingCart   = "recipe removed from shopping cart"
	MessageSuccessDownloadShoppingCart = "shopping list generated"

	MessageFailedGetRecipes           = "failed to get recipes"
	MessageFailedGetRecipeDetail      = "failed to get recipe detail"
	MessageFailedCreateRecipe         = "failed to create recipe"
	MessageFailedUpdateRecipe         = "failed to update recipe"
	MessageFailedDeleteRecipe         = "failed to delete recipe"
	MessageFailedAddFavorite          = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite       = "failed to remove recipe from favorites"
	MessageFailedAddShoppingCart      = "failed to add recipe to shopping cart"
	MessageFailedRemoveShoppingCart   = "failed to remove recipe from shopping cart"
	MessageFailedDownloadShoppingCart = "failed to generate shopping list"

	ErrRecipeNotFound        = errors.New("recipe not found")
	ErrNoTags                = errors.New("at least one tag is required")
	ErrNoIngredients         = errors.New("at least one ingredient is required")
	ErrDuplicateTags         = errors.New("duplicate tags in recipe")
	ErrDuplicateIngredients  = errors.New("duplicate ingredients in recipe")
	ErrUnknownTag            = errors.New("unknown tag")
	ErrUnknownIngredient     = errors.New("unknown ingredient")
	ErrAmountTooSmall        = errors.New("ingredient amount must be at least 1")
	ErrCookingTimeOutOfRange = errors.New("cooking time out of range")
	ErrDuplicateRecipe       = errors.New("you already published a recipe with this name and description")
	ErrInvalidImageEncoding  = errors.New("invalid image encoding")
	ErrAlreadyFavorited      = errors.New("recipe already in favorites")
	ErrNotFavorited          = errors.New("recipe not in favorites")
	ErrAlreadyInShoppingCart = errors.New("recipe already in shopping cart")
	ErrNotInShoppingCart     = errors.New("recipe not in shopping cart")
)

const (
	MinCookingTime = 1
	MaxCookingTime = 1440
)

type (
	RecipeIngredientRequest struct {
		ID     string `json:"id" validate:"required,uuid"`
		Amount int    `json:"amount" validate:"required,min=1"`
	}

	CreateRecipeRequest struct {
		Name        string                    `json:"name" validate:"required,max=200"`
		Text        string                    `json:"text" validate:"required"`
		CookingTime int                       `json:"cooking_time" validate:"required"`
		Image       string                    `json:"image" validate:"required"`
		Tags        []string                  `json:"tags" validate:"required"`
		Ingredients []RecipeIngredientRequest `json:"ingredients" validate:"required,dive"`
	}

	// UpdateRecipeRequest allows partial scalar updates but the tag and
	// ingredient sets must always be re-supplied in full.
	UpdateRecipeRequest struct {
		Name        string                    `json:"name" validate:"omitempty,max=200"`
		Text        string                    `json:"text" validate:"omitempty"`
		CookingTime int                       `json:"cooking_time" validate:"omitempty"`
		Image       string                    `json:"image" validate:"omitempty"`
		Tags        []string                  `json:"tags" validate:"required"`
		Ingredients []RecipeIngredientRequest `json:"ingredients" validate:"required,dive"`
	}

	RecipeIngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeResponse struct {
		ID               string                     `json:"id"`
		Tags             []TagResponse              `json:"tags"`
		Author           UserResponse               `json:"author"`
		Ingredients      []RecipeIngredientResponse `json:"ingredients"`
		Name             string                     `json:"name"`
		Image            string                     `json:"image"`
		Text             string                     `json:"text"`
		CookingTime      int                        `json:"cooking_time"`
		IsFavorited      bool                       `json:"is_favorited"`
		IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	}

	// RecipeSummary is the short recipe representation rendered by the
	// favorite/shopping-cart actions and inside followed-author profiles.
	RecipeSummary struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	RecipeFilter struct {
		Author           string
		Tags             []string
		IsFavorited      *bool
		IsInShoppingCart *bool
		Page             int
		Limit            int
	}

	ShoppingListItem struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Total           int    `json:"total"`
	}
)
