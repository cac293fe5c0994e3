package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"foodgram-backend/domain"
	"foodgram-backend/entities"
	"foodgram-backend/internal/utils"
	"foodgram-backend/internal/utils/storage"
	"foodgram-backend/pkg/ingredient"
	"foodgram-backend/pkg/membership"
	"foodgram-backend/pkg/tag"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, userID string) ([]domain.RecipeResponse, int64, error)
		GetRecipeDetail(ctx context.Context, recipeID string, userID string) (domain.RecipeResponse, error)
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string, role string) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID string, role string) error
		AddFavorite(ctx context.Context, recipeID string, userID string) (domain.RecipeSummary, error)
		RemoveFavorite(ctx context.Context, recipeID string, userID string) error
		AddToShoppingCart(ctx context.Context, recipeID string, userID string) (domain.RecipeSummary, error)
		RemoveFromShoppingCart(ctx context.Context, recipeID string, userID string) error
		DownloadShoppingCart(ctx context.Context, userID string) (string, error)
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		tagRepository        tag.TagRepository
		ingredientRepository ingredient.IngredientRepository
		favorites            *membership.Relation
		shoppingCart         *membership.Relation
		s3                   storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	tagRepository tag.TagRepository,
	ingredientRepository ingredient.IngredientRepository,
	favorites *membership.Relation,
	shoppingCart *membership.Relation,
	s3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		tagRepository:        tagRepository,
		ingredientRepository: ingredientRepository,
		favorites:            favorites,
		shoppingCart:         shoppingCart,
		s3:                   s3,
	}
}

func (s *recipeService) validateTags(ctx context.Context, ids []string) ([]entities.Tag, error) {
	if len(ids) == 0 {
		return nil, domain.ErrNoTags
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	tagIDs := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, domain.ErrUnknownTag
		}
		if seen[id] {
			return nil, domain.ErrDuplicateTags
		}
		seen[id] = true
		tagIDs = append(tagIDs, id)
	}

	tags, err := s.tagRepository.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, domain.ErrUnknownTag
	}

	res := make([]entities.Tag, 0, len(tags))
	for _, t := range tags {
		res = append(res, *t)
	}
	return res, nil
}

func (s *recipeService) validateIngredients(ctx context.Context, reqs []domain.RecipeIngredientRequest) ([]entities.RecipeIngredient, error) {
	if len(reqs) == 0 {
		return nil, domain.ErrNoIngredients
	}

	seen := make(map[uuid.UUID]bool, len(reqs))
	ingredientIDs := make([]uuid.UUID, 0, len(reqs))
	rows := make([]entities.RecipeIngredient, 0, len(reqs))
	for _, in := range reqs {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return nil, domain.ErrUnknownIngredient
		}
		if in.Amount < 1 {
			return nil, domain.ErrAmountTooSmall
		}
		if seen[id] {
			return nil, domain.ErrDuplicateIngredients
		}
		seen[id] = true
		ingredientIDs = append(ingredientIDs, id)
		rows = append(rows, entities.RecipeIngredient{
			IngredientID: id,
			Amount:       in.Amount,
		})
	}

	ingredients, err := s.ingredientRepository.GetIngredientsByIDs(ctx, ingredientIDs)
	if err != nil {
		return nil, err
	}
	if len(ingredients) != len(ingredientIDs) {
		return nil, domain.ErrUnknownIngredient
	}
	return rows, nil
}

func (s *recipeService) uploadImage(ctx context.Context, recipeID uuid.UUID, encoded string) (string, error) {
	data, ext, contentType, err := utils.DecodeBase64Image(encoded)
	if err != nil {
		return "", err
	}

	key, err := s.s3.UploadBytes(
		ctx,
		fmt.Sprintf("recipes/%s.%s", recipeID.String(), ext),
		data,
		contentType,
		storage.AllowImage...,
	)
	if err != nil {
		return "", err
	}
	return s.s3.GetPublicLinkKey(key), nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeResponse, error) {
	authorID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrParseUUID
	}

	if req.CookingTime < domain.MinCookingTime || req.CookingTime > domain.MaxCookingTime {
		return domain.RecipeResponse{}, domain.ErrCookingTimeOutOfRange
	}

	tags, err := s.validateTags(ctx, req.Tags)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	ingredients, err := s.validateIngredients(ctx, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	exists, err := s.recipeRepository.RecipeTripleExists(ctx, authorID, req.Name, req.Text, uuid.Nil)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	if exists {
		return domain.RecipeResponse{}, domain.ErrDuplicateRecipe
	}

	recipeID := uuid.New()
	imageURL, err := s.uploadImage(ctx, recipeID, req.Image)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe := &entities.Recipe{
		ID:          recipeID,
		AuthorID:    authorID,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		ImageURL:    imageURL,
	}
	for i := range ingredients {
		ingredients[i].ID = uuid.New()
		ingredients[i].RecipeID = recipeID
	}

	if err := s.recipeRepository.CreateRecipe(ctx, recipe, ingredients, tags); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeResponse{}, domain.ErrDuplicateRecipe
		}
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipeID.String(), userID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string, role string) (domain.RecipeResponse, error) {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	if recipe.AuthorID.String() != userID && role != domain.RoleAdmin {
		return domain.RecipeResponse{}, domain.ErrUserNotAllowed
	}

	// Tags and ingredients must always be re-supplied in full on update.
	tags, err := s.validateTags(ctx, req.Tags)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	ingredients, err := s.validateIngredients(ctx, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	if req.Name != "" {
		recipe.Name = req.Name
	}
	if req.Text != "" {
		recipe.Text = req.Text
	}
	if req.CookingTime != 0 {
		if req.CookingTime < domain.MinCookingTime || req.CookingTime > domain.MaxCookingTime {
			return domain.RecipeResponse{}, domain.ErrCookingTimeOutOfRange
		}
		recipe.CookingTime = req.CookingTime
	}

	exists, err := s.recipeRepository.RecipeTripleExists(ctx, recipe.AuthorID, recipe.Name, recipe.Text, recipe.ID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	if exists {
		return domain.RecipeResponse{}, domain.ErrDuplicateRecipe
	}

	if req.Image != "" {
		imageURL, err := s.uploadImage(ctx, recipe.ID, req.Image)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		recipe.ImageURL = imageURL
	}

	for i := range ingredients {
		ingredients[i].ID = uuid.New()
		ingredients[i].RecipeID = recipe.ID
	}

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe, ingredients, tags); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeResponse{}, domain.ErrDuplicateRecipe
		}
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipe.ID.String(), userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID string, role string) error {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return err
	}

	if recipe.AuthorID.String() != userID && role != domain.RoleAdmin {
		return domain.ErrUserNotAllowed
	}

	return s.recipeRepository.DeleteRecipe(ctx, recipeID)
}

func (s *recipeService) getRecipe(ctx context.Context, recipeID string) (*entities.Recipe, error) {
	if _, err := uuid.Parse(recipeID); err != nil {
		return nil, domain.ErrRecipeNotFound
	}

	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID string, userID string) (domain.RecipeResponse, error) {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	favorited := false
	inCart := false
	if userID != "" {
		uid, err := uuid.Parse(userID)
		if err != nil {
			return domain.RecipeResponse{}, domain.ErrParseUUID
		}
		if favorited, err = s.favorites.Exists(ctx, uid, recipe.ID); err != nil {
			return domain.RecipeResponse{}, err
		}
		if inCart, err = s.shoppingCart.Exists(ctx, uid, recipe.ID); err != nil {
			return domain.RecipeResponse{}, err
		}
	}

	return toRecipeResponse(recipe, favorited, inCart), nil
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, userID string) ([]domain.RecipeResponse, int64, error) {
	wantsFavorited := filter.IsFavorited != nil && *filter.IsFavorited
	wantsInCart := filter.IsInShoppingCart != nil && *filter.IsInShoppingCart

	// An anonymous caller asking for their favorites or cart gets an empty
	// page, never an error: there is no identity to filter by.
	if userID == "" && (wantsFavorited || wantsInCart) {
		return []domain.RecipeResponse{}, 0, nil
	}

	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, userID)
	if err != nil {
		return nil, 0, err
	}

	favorited := map[uuid.UUID]bool{}
	inCart := map[uuid.UUID]bool{}
	if userID != "" && len(recipes) > 0 {
		uid, err := uuid.Parse(userID)
		if err != nil {
			return nil, 0, domain.ErrParseUUID
		}
		ids := make([]uuid.UUID, 0, len(recipes))
		for _, r := range recipes {
			ids = append(ids, r.ID)
		}
		if favorited, err = s.favorites.Members(ctx, uid, ids); err != nil {
			return nil, 0, err
		}
		if inCart, err = s.shoppingCart.Members(ctx, uid, ids); err != nil {
			return nil, 0, err
		}
	}

	res := make([]domain.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		res = append(res, toRecipeResponse(r, favorited[r.ID], inCart[r.ID]))
	}
	return res, count, nil
}

func (s *recipeService) addMembership(ctx context.Context, relation *membership.Relation, recipeID, userID string) (domain.RecipeSummary, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeSummary{}, domain.ErrParseUUID
	}

	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return domain.RecipeSummary{}, err
	}

	if err := relation.Add(ctx, uid, recipe.ID); err != nil {
		return domain.RecipeSummary{}, err
	}
	return toRecipeSummary(recipe), nil
}

func (s *recipeService) removeMembership(ctx context.Context, relation *membership.Relation, recipeID, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return err
	}

	return relation.Remove(ctx, uid, recipe.ID)
}

func (s *recipeService) AddFavorite(ctx context.Context, recipeID string, userID string) (domain.RecipeSummary, error) {
	return s.addMembership(ctx, s.favorites, recipeID, userID)
}

func (s *recipeService) RemoveFavorite(ctx context.Context, recipeID string, userID string) error {
	return s.removeMembership(ctx, s.favorites, recipeID, userID)
}

func (s *recipeService) AddToShoppingCart(ctx context.Context, recipeID string, userID string) (domain.RecipeSummary, error) {
	return s.addMembership(ctx, s.shoppingCart, recipeID, userID)
}

func (s *recipeService) RemoveFromShoppingCart(ctx context.Context, recipeID string, userID string) error {
	return s.removeMembership(ctx, s.shoppingCart, recipeID, userID)
}

// DownloadShoppingCart renders the aggregated shopping list as plain text,
// one line per distinct (ingredient, unit) pair.
func (s *recipeService) DownloadShoppingCart(ctx context.Context, userID string) (string, error) {
	items, err := s.recipeRepository.GetShoppingList(ctx, userID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Shopping list:\n")
	for _, item := range items {
		b.WriteString(fmt.Sprintf("\n%s(%s) - %d", capitalize(item.Name), item.MeasurementUnit, item.Total))
	}
	return b.String(), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func toRecipeSummary(recipe *entities.Recipe) domain.RecipeSummary {
	return domain.RecipeSummary{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}

func toRecipeResponse(recipe *entities.Recipe, favorited, inCart bool) domain.RecipeResponse {
	tags := make([]domain.TagResponse, 0, len(recipe.Tags))
	for _, t := range recipe.Tags {
		tags = append(tags, domain.TagResponse{
			ID:    t.ID.String(),
			Name:  t.Name,
			Color: t.Color,
			Slug:  t.Slug,
		})
	}

	ingredients := make([]domain.RecipeIngredientResponse, 0, len(recipe.Ingredients))
	for _, ri := range recipe.Ingredients {
		row := domain.RecipeIngredientResponse{
			ID:     ri.IngredientID.String(),
			Amount: ri.Amount,
		}
		if ri.Ingredient != nil {
			row.Name = ri.Ingredient.Name
			row.MeasurementUnit = ri.Ingredient.MeasurementUnit
		}
		ingredients = append(ingredients, row)
	}

	var author domain.UserResponse
	if recipe.Author != nil {
		author = domain.UserResponse{
			ID:        recipe.Author.ID.String(),
			Email:     recipe.Author.Email,
			Username:  recipe.Author.Username,
			FirstName: recipe.Author.FirstName,
			LastName:  recipe.Author.LastName,
		}
	}

	return domain.RecipeResponse{
		ID:               recipe.ID.String(),
		Tags:             tags,
		Author:           author,
		Ingredients:      ingredients,
		Name:             recipe.Name,
		Image:            recipe.ImageURL,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
	}
}
