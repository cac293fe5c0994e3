package recipe

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"foodgram-backend/domain"
	"foodgram-backend/entities"
	"foodgram-backend/pkg/ingredient"
	"foodgram-backend/pkg/membership"
	"foodgram-backend/pkg/tag"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubStorage struct{}

func (stubStorage) UploadBytes(_ context.Context, key string, _ []byte, _ string, _ ...string) (string, error) {
	return key, nil
}

func (stubStorage) DeleteObject(_ context.Context, _ string) error { return nil }

func (stubStorage) GetPublicLinkKey(key string) string { return "https://cdn.test/" + key }

type testEnv struct {
	db      *gorm.DB
	service RecipeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entities.User{},
		&entities.Follow{},
		&entities.Tag{},
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.RecipeIngredient{},
		&entities.Favorite{},
		&entities.ShoppingCart{},
	))

	favorites := membership.NewRelation(db, "favorites", "user_id", "recipe_id", domain.ErrAlreadyFavorited, domain.ErrNotFavorited)
	shoppingCart := membership.NewRelation(db, "shopping_carts", "user_id", "recipe_id", domain.ErrAlreadyInShoppingCart, domain.ErrNotInShoppingCart)

	service := NewRecipeService(
		NewRecipeRepository(db),
		tag.NewTagRepository(db),
		ingredient.NewIngredientRepository(db),
		favorites,
		shoppingCart,
		stubStorage{},
	)
	return &testEnv{db: db, service: service}
}

func (e *testEnv) seedUser(t *testing.T, email string) *entities.User {
	t.Helper()
	u := &entities.User{
		ID:       uuid.New(),
		Email:    email,
		Username: email,
		Password: "x",
		Role:     domain.RoleUser,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) seedTag(t *testing.T, name, slug string) *entities.Tag {
	t.Helper()
	tg := &entities.Tag{ID: uuid.New(), Name: name, Color: "#49B64E", Slug: slug}
	require.NoError(t, e.db.Create(tg).Error)
	return tg
}

func (e *testEnv) seedIngredient(t *testing.T, name, unit string) *entities.Ingredient {
	t.Helper()
	in := &entities.Ingredient{ID: uuid.New(), Name: name, MeasurementUnit: unit}
	require.NoError(t, e.db.Create(in).Error)
	return in
}

func testImage() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png bytes"))
}

func validRequest(name string, tagIDs []string, ingredients []domain.RecipeIngredientRequest) domain.CreateRecipeRequest {
	return domain.CreateRecipeRequest{
		Name:        name,
		Text:        "cook it slowly",
		CookingTime: 30,
		Image:       testImage(),
		Tags:        tagIDs,
		Ingredients: ingredients,
	}
}

func TestCreateRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	tg := env.seedTag(t, "breakfast", "breakfast")
	salt := env.seedIngredient(t, "salt", "g")

	req := validRequest("Omelette", []string{tg.ID.String()}, []domain.RecipeIngredientRequest{
		{ID: salt.ID.String(), Amount: 5},
	})
	res, err := env.service.CreateRecipe(ctx, req, author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Omelette", res.Name)
	assert.Equal(t, author.ID.String(), res.Author.ID)
	require.Len(t, res.Tags, 1)
	assert.Equal(t, "breakfast", res.Tags[0].Slug)
	require.Len(t, res.Ingredients, 1)
	assert.Equal(t, "salt", res.Ingredients[0].Name)
	assert.Equal(t, "g", res.Ingredients[0].MeasurementUnit)
	assert.Equal(t, 5, res.Ingredients[0].Amount)
	assert.Contains(t, res.Image, "https://cdn.test/recipes/")
	assert.False(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)
}

func TestCreateRecipeCookingTimeBounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	tg := env.seedTag(t, "dinner", "dinner")
	salt := env.seedIngredient(t, "salt", "g")

	rows := []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 1}}

	req := validRequest("Too fast", []string{tg.ID.String()}, rows)
	req.CookingTime = 0
	_, err := env.service.CreateRecipe(ctx, req, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrCookingTimeOutOfRange)

	req = validRequest("Too slow", []string{tg.ID.String()}, rows)
	req.CookingTime = 1441
	_, err = env.service.CreateRecipe(ctx, req, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrCookingTimeOutOfRange)

	req = validRequest("A day", []string{tg.ID.String()}, rows)
	req.CookingTime = 1440
	_, err = env.service.CreateRecipe(ctx, req, author.ID.String())
	assert.NoError(t, err)
}

func TestCreateRecipeRejectsBadTagSets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	tg := env.seedTag(t, "lunch", "lunch")
	salt := env.seedIngredient(t, "salt", "g")
	rows := []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 1}}

	_, err := env.service.CreateRecipe(ctx, validRequest("A", nil, rows), author.ID.String())
	assert.ErrorIs(t, err, domain.ErrNoTags)

	_, err = env.service.CreateRecipe(ctx, validRequest("B", []string{tg.ID.String(), tg.ID.String()}, rows), author.ID.String())
	assert.ErrorIs(t, err, domain.ErrDuplicateTags)

	_, err = env.service.CreateRecipe(ctx, validRequest("C", []string{uuid.NewString()}, rows), author.ID.String())
	assert.ErrorIs(t, err, domain.ErrUnknownTag)
}

func TestCreateRecipeRejectsBadIngredientSets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	tg := env.seedTag(t, "lunch", "lunch")
	salt := env.seedIngredient(t, "salt", "g")
	tags := []string{tg.ID.String()}

	_, err := env.service.CreateRecipe(ctx, validRequest("A", tags, nil), author.ID.String())
	assert.ErrorIs(t, err, domain.ErrNoIngredients)

	_, err = env.service.CreateRecipe(ctx, validRequest("B", tags, []domain.RecipeIngredientRequest{
		{ID: salt.ID.String(), Amount: 1},
		{ID: salt.ID.String(), Amount: 2},
	}), author.ID.String())
	assert.ErrorIs(t, err, domain.ErrDuplicateIngredients)

	_, err = env.service.CreateRecipe(ctx, validRequest("C", tags, []domain.RecipeIngredientRequest{
		{ID: uuid.NewString(), Amount: 1},
	}), author.ID.String())
	assert.ErrorIs(t, err, domain.ErrUnknownIngredient)

	_, err = env.service.CreateRecipe(ctx, validRequest("D", tags, []domain.RecipeIngredientRequest{
		{ID: salt.ID.String(), Amount: 0},
	}), author.ID.String())
	assert.ErrorIs(t, err, domain.ErrAmountTooSmall)
}

func TestCreateRecipeDuplicateTriple(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	other := env.seedUser(t, "rival@example.com")
	tg := env.seedTag(t, "dinner", "dinner")
	salt := env.seedIngredient(t, "salt", "g")
	rows := []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 1}}

	req := validRequest("Stew", []string{tg.ID.String()}, rows)
	_, err := env.service.CreateRecipe(ctx, req, author.ID.String())
	require.NoError(t, err)

	_, err = env.service.CreateRecipe(ctx, req, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrDuplicateRecipe)

	// Same name and text under a different author is a different recipe.
	_, err = env.service.CreateRecipe(ctx, req, other.ID.String())
	assert.NoError(t, err)
}

func TestCreateRecipeBadImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	tg := env.seedTag(t, "dinner", "dinner")
	salt := env.seedIngredient(t, "salt", "g")

	req := validRequest("Stew", []string{tg.ID.String()}, []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 1}})
	req.Image = "not a data uri"
	_, err := env.service.CreateRecipe(ctx, req, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidImageEncoding)
}

func TestUpdateRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	tg := env.seedTag(t, "dinner", "dinner")
	other := env.seedTag(t, "supper", "supper")
	salt := env.seedIngredient(t, "salt", "g")
	pepper := env.seedIngredient(t, "pepper", "pinch")

	created, err := env.service.CreateRecipe(ctx, validRequest("Stew", []string{tg.ID.String()}, []domain.RecipeIngredientRequest{
		{ID: salt.ID.String(), Amount: 5},
	}), author.ID.String())
	require.NoError(t, err)

	updated, err := env.service.UpdateRecipe(ctx, created.ID, domain.UpdateRecipeRequest{
		Name:        "Thick stew",
		CookingTime: 90,
		Tags:        []string{other.ID.String()},
		Ingredients: []domain.RecipeIngredientRequest{{ID: pepper.ID.String(), Amount: 2}},
	}, author.ID.String(), domain.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, "Thick stew", updated.Name)
	assert.Equal(t, 90, updated.CookingTime)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "supper", updated.Tags[0].Slug)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, "pepper", updated.Ingredients[0].Name)
}

func TestUpdateRecipeRequiresFullSets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	tg := env.seedTag(t, "dinner", "dinner")
	salt := env.seedIngredient(t, "salt", "g")

	created, err := env.service.CreateRecipe(ctx, validRequest("Stew", []string{tg.ID.String()}, []domain.RecipeIngredientRequest{
		{ID: salt.ID.String(), Amount: 5},
	}), author.ID.String())
	require.NoError(t, err)

	_, err = env.service.UpdateRecipe(ctx, created.ID, domain.UpdateRecipeRequest{
		Name:        "Renamed",
		Ingredients: []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 5}},
	}, author.ID.String(), domain.RoleUser)
	assert.ErrorIs(t, err, domain.ErrNoTags)

	_, err = env.service.UpdateRecipe(ctx, created.ID, domain.UpdateRecipeRequest{
		Name: "Renamed",
		Tags: []string{tg.ID.String()},
	}, author.ID.String(), domain.RoleUser)
	assert.ErrorIs(t, err, domain.ErrNoIngredients)
}

func TestUpdateRecipeAuthorization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	stranger := env.seedUser(t, "stranger@example.com")
	admin := env.seedUser(t, "admin@example.com")
	tg := env.seedTag(t, "dinner", "dinner")
	salt := env.seedIngredient(t, "salt", "g")

	created, err := env.service.CreateRecipe(ctx, validRequest("Stew", []string{tg.ID.String()}, []domain.RecipeIngredientRequest{
		{ID: salt.ID.String(), Amount: 5},
	}), author.ID.String())
	require.NoError(t, err)

	req := domain.UpdateRecipeRequest{
		Name:        "Hijacked",
		Tags:        []string{tg.ID.String()},
		Ingredients: []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 5}},
	}

	_, err = env.service.UpdateRecipe(ctx, created.ID, req, stranger.ID.String(), domain.RoleUser)
	assert.ErrorIs(t, err, domain.ErrUserNotAllowed)

	_, err = env.service.UpdateRecipe(ctx, created.ID, req, admin.ID.String(), domain.RoleAdmin)
	assert.NoError(t, err)
}

func TestDeleteRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	stranger := env.seedUser(t, "stranger@example.com")
	tg := env.seedTag(t, "dinner", "dinner")
	salt := env.seedIngredient(t, "salt", "g")

	created, err := env.service.CreateRecipe(ctx, validRequest("Stew", []string{tg.ID.String()}, []domain.RecipeIngredientRequest{
		{ID: salt.ID.String(), Amount: 5},
	}), author.ID.String())
	require.NoError(t, err)

	err = env.service.DeleteRecipe(ctx, created.ID, stranger.ID.String(), domain.RoleUser)
	assert.ErrorIs(t, err, domain.ErrUserNotAllowed)

	require.NoError(t, env.service.DeleteRecipe(ctx, created.ID, author.ID.String(), domain.RoleUser))

	_, err = env.service.GetRecipeDetail(ctx, created.ID, "")
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestFavoriteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	reader := env.seedUser(t, "reader@example.com")
	tg := env.seedTag(t, "dinner", "dinner")
	salt := env.seedIngredient(t, "salt", "g")

	created, err := env.service.CreateRecipe(ctx, validRequest("Stew", []string{tg.ID.String()}, []domain.RecipeIngredientRequest{
		{ID: salt.ID.String(), Amount: 5},
	}), author.ID.String())
	require.NoError(t, err)

	summary, err := env.service.AddFavorite(ctx, created.ID, reader.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, summary.ID)
	assert.Equal(t, "Stew", summary.Name)

	_, err = env.service.AddFavorite(ctx, created.ID, reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyFavorited)

	detail, err := env.service.GetRecipeDetail(ctx, created.ID, reader.ID.String())
	require.NoError(t, err)
	assert.True(t, detail.IsFavorited)

	require.NoError(t, env.service.RemoveFavorite(ctx, created.ID, reader.ID.String()))
	assert.ErrorIs(t, env.service.RemoveFavorite(ctx, created.ID, reader.ID.String()), domain.ErrNotFavorited)
}

func TestShoppingCartLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	tg := env.seedTag(t, "dinner", "dinner")
	salt := env.seedIngredient(t, "salt", "g")

	created, err := env.service.CreateRecipe(ctx, validRequest("Stew", []string{tg.ID.String()}, []domain.RecipeIngredientRequest{
		{ID: salt.ID.String(), Amount: 5},
	}), author.ID.String())
	require.NoError(t, err)

	_, err = env.service.AddToShoppingCart(ctx, created.ID, author.ID.String())
	require.NoError(t, err)

	_, err = env.service.AddToShoppingCart(ctx, created.ID, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyInShoppingCart)

	require.NoError(t, env.service.RemoveFromShoppingCart(ctx, created.ID, author.ID.String()))
	assert.ErrorIs(t, env.service.RemoveFromShoppingCart(ctx, created.ID, author.ID.String()), domain.ErrNotInShoppingCart)
}

func TestMembershipAgainstMissingRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reader := env.seedUser(t, "reader@example.com")

	_, err := env.service.AddFavorite(ctx, uuid.NewString(), reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	err = env.service.RemoveFromShoppingCart(ctx, uuid.NewString(), reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestGetRecipesTagFilterIsUnion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	breakfast := env.seedTag(t, "breakfast", "breakfast")
	dinner := env.seedTag(t, "dinner", "dinner")
	supper := env.seedTag(t, "supper", "supper")
	salt := env.seedIngredient(t, "salt", "g")
	rows := []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 1}}

	_, err := env.service.CreateRecipe(ctx, validRequest("Omelette", []string{breakfast.ID.String()}, rows), author.ID.String())
	require.NoError(t, err)
	_, err = env.service.CreateRecipe(ctx, validRequest("Stew", []string{dinner.ID.String()}, rows), author.ID.String())
	require.NoError(t, err)
	_, err = env.service.CreateRecipe(ctx, validRequest("Cocoa", []string{supper.ID.String()}, rows), author.ID.String())
	require.NoError(t, err)

	res, count, err := env.service.GetRecipes(ctx, domain.RecipeFilter{
		Tags:  []string{"breakfast", "dinner"},
		Page:  1,
		Limit: 10,
	}, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	names := make([]string, 0, len(res))
	for _, r := range res {
		names = append(names, r.Name)
	}
	assert.ElementsMatch(t, []string{"Omelette", "Stew"}, names)
}

func TestGetRecipesAuthorFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	chef := env.seedUser(t, "chef@example.com")
	rival := env.seedUser(t, "rival@example.com")
	tg := env.seedTag(t, "dinner", "dinner")
	salt := env.seedIngredient(t, "salt", "g")
	rows := []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 1}}

	_, err := env.service.CreateRecipe(ctx, validRequest("Stew", []string{tg.ID.String()}, rows), chef.ID.String())
	require.NoError(t, err)
	_, err = env.service.CreateRecipe(ctx, validRequest("Soup", []string{tg.ID.String()}, rows), rival.ID.String())
	require.NoError(t, err)

	res, count, err := env.service.GetRecipes(ctx, domain.RecipeFilter{
		Author: chef.ID.String(),
		Page:   1,
		Limit:  10,
	}, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, res, 1)
	assert.Equal(t, "Stew", res[0].Name)
}

func TestGetRecipesFavoritedFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	reader := env.seedUser(t, "reader@example.com")
	tg := env.seedTag(t, "dinner", "dinner")
	salt := env.seedIngredient(t, "salt", "g")
	rows := []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 1}}

	liked, err := env.service.CreateRecipe(ctx, validRequest("Stew", []string{tg.ID.String()}, rows), author.ID.String())
	require.NoError(t, err)
	_, err = env.service.CreateRecipe(ctx, validRequest("Soup", []string{tg.ID.String()}, rows), author.ID.String())
	require.NoError(t, err)

	_, err = env.service.AddFavorite(ctx, liked.ID, reader.ID.String())
	require.NoError(t, err)

	yes := true
	res, count, err := env.service.GetRecipes(ctx, domain.RecipeFilter{
		IsFavorited: &yes,
		Page:        1,
		Limit:       10,
	}, reader.ID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, res, 1)
	assert.Equal(t, liked.ID, res[0].ID)
	assert.True(t, res[0].IsFavorited)

	// The false value leaves the listing unrestricted.
	no := false
	_, count, err = env.service.GetRecipes(ctx, domain.RecipeFilter{
		IsFavorited: &no,
		Page:        1,
		Limit:       10,
	}, reader.ID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestGetRecipesAnonymousFavoritedFilterIsEmpty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	tg := env.seedTag(t, "dinner", "dinner")
	salt := env.seedIngredient(t, "salt", "g")

	_, err := env.service.CreateRecipe(ctx, validRequest("Stew", []string{tg.ID.String()}, []domain.RecipeIngredientRequest{
		{ID: salt.ID.String(), Amount: 1},
	}), author.ID.String())
	require.NoError(t, err)

	yes := true
	res, count, err := env.service.GetRecipes(ctx, domain.RecipeFilter{
		IsFavorited: &yes,
		Page:        1,
		Limit:       10,
	}, "")
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Zero(t, count)

	res, count, err = env.service.GetRecipes(ctx, domain.RecipeFilter{
		IsInShoppingCart: &yes,
		Page:             1,
		Limit:            10,
	}, "")
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Zero(t, count)
}

func TestDownloadShoppingCartAggregates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.seedUser(t, "chef@example.com")
	tg := env.seedTag(t, "dinner", "dinner")
	salt := env.seedIngredient(t, "salt", "g")
	pepper := env.seedIngredient(t, "pepper", "pinch")

	stew, err := env.service.CreateRecipe(ctx, validRequest("Stew", []string{tg.ID.String()}, []domain.RecipeIngredientRequest{
		{ID: salt.ID.String(), Amount: 5},
	}), author.ID.String())
	require.NoError(t, err)

	soup, err := env.service.CreateRecipe(ctx, validRequest("Soup", []string{tg.ID.String()}, []domain.RecipeIngredientRequest{
		{ID: salt.ID.String(), Amount: 10},
		{ID: pepper.ID.String(), Amount: 2},
	}), author.ID.String())
	require.NoError(t, err)

	_, err = env.service.AddToShoppingCart(ctx, stew.ID, author.ID.String())
	require.NoError(t, err)
	_, err = env.service.AddToShoppingCart(ctx, soup.ID, author.ID.String())
	require.NoError(t, err)

	text, err := env.service.DownloadShoppingCart(ctx, author.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Shopping list:\n\nPepper(pinch) - 2\nSalt(g) - 15", text)
}

func TestDownloadShoppingCartEmpty(t *testing.T) {
	env := newTestEnv(t)
	reader := env.seedUser(t, "reader@example.com")

	text, err := env.service.DownloadShoppingCart(context.Background(), reader.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Shopping list:\n", text)
}
