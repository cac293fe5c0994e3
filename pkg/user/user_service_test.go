package user

import (
	"context"
	"fmt"
	"testing"
	"time"

	"foodgram-backend/domain"
	"foodgram-backend/entities"
	"foodgram-backend/pkg/jwt"
	"foodgram-backend/pkg/membership"
	"foodgram-backend/pkg/recipe"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	service UserService
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

	follows := membership.NewRelation(db, "follows", "user_id", "following_id", domain.ErrAlreadyFollowing, domain.ErrNotFollowing)
	service := NewUserService(
		NewUserRepository(db),
		recipe.NewRecipeRepository(db),
		jwt.NewJWTService(),
		follows,
	)
	return &testEnv{db: db, service: service}
}

func (e *testEnv) register(t *testing.T, email string) domain.UserResponse {
	t.Helper()
	res, err := e.service.Register(context.Background(), domain.RegisterRequest{
		Email:     email,
		Username:  email,
		FirstName: "Test",
		LastName:  "User",
		Password:  "hunter22",
	})
	require.NoError(t, err)
	return res
}

func (e *testEnv) seedRecipe(t *testing.T, authorID string, name string, createdAt time.Time) *entities.Recipe {
	t.Helper()
	author, err := uuid.Parse(authorID)
	require.NoError(t, err)
	r := &entities.Recipe{
		ID:          uuid.New(),
		AuthorID:    author,
		Name:        name,
		Text:        name + " text",
		CookingTime: 30,
		Timestamp:   entities.Timestamp{CreatedAt: createdAt, UpdatedAt: createdAt},
	}
	require.NoError(t, e.db.Omit("Tags", "Ingredients", "Author").Create(r).Error)
	return r
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	res := env.register(t, "chef@example.com")
	assert.Equal(t, "chef@example.com", res.Email)
	assert.False(t, res.IsSubscribed)
	require.NotEmpty(t, res.ID)

	_, err := env.service.Register(context.Background(), domain.RegisterRequest{
		Email:    "chef@example.com",
		Username: "someone-else",
		Password: "hunter22",
	})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyRegistered)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "chef@example.com")

	res, err := env.service.Login(ctx, domain.LoginRequest{Email: "chef@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, domain.RoleUser, res.Role)

	_, err = env.service.Login(ctx, domain.LoginRequest{Email: "chef@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrCredentialsInvalid)

	_, err = env.service.Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, domain.ErrCredentialsInvalid)
}

func TestUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registered := env.register(t, "chef@example.com")

	res, err := env.service.UpdateUser(ctx, domain.UpdateUserRequest{
		FirstName: "Renamed",
	}, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", res.FirstName)
	assert.Equal(t, "User", res.LastName)

	me, err := env.service.Me(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", me.FirstName)
}

func TestSubscribe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	follower := env.register(t, "reader@example.com")
	target := env.register(t, "chef@example.com")

	profile, err := env.service.Subscribe(ctx, target.ID, follower.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, target.ID, profile.ID)
	assert.True(t, profile.IsSubscribed)

	_, err = env.service.Subscribe(ctx, target.ID, follower.ID, 0)
	assert.ErrorIs(t, err, domain.ErrAlreadyFollowing)
}

func TestSubscribeSelf(t *testing.T) {
	env := newTestEnv(t)
	follower := env.register(t, "reader@example.com")

	_, err := env.service.Subscribe(context.Background(), follower.ID, follower.ID, 0)
	assert.ErrorIs(t, err, domain.ErrSelfFollow)
}

func TestSubscribeMissingTarget(t *testing.T) {
	env := newTestEnv(t)
	follower := env.register(t, "reader@example.com")

	_, err := env.service.Subscribe(context.Background(), uuid.NewString(), follower.ID, 0)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUnsubscribe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	follower := env.register(t, "reader@example.com")
	target := env.register(t, "chef@example.com")

	_, err := env.service.Subscribe(ctx, target.ID, follower.ID, 0)
	require.NoError(t, err)

	require.NoError(t, env.service.Unsubscribe(ctx, target.ID, follower.ID))
	assert.ErrorIs(t, env.service.Unsubscribe(ctx, target.ID, follower.ID), domain.ErrNotFollowing)
}

func TestGetUserDetailSubscribedFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	follower := env.register(t, "reader@example.com")
	target := env.register(t, "chef@example.com")

	detail, err := env.service.GetUserDetail(ctx, target.ID, follower.ID)
	require.NoError(t, err)
	assert.False(t, detail.IsSubscribed)

	_, err = env.service.Subscribe(ctx, target.ID, follower.ID, 0)
	require.NoError(t, err)

	detail, err = env.service.GetUserDetail(ctx, target.ID, follower.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsSubscribed)

	// Anonymous callers never see the flag set.
	detail, err = env.service.GetUserDetail(ctx, target.ID, "")
	require.NoError(t, err)
	assert.False(t, detail.IsSubscribed)
}

func TestGetSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	follower := env.register(t, "reader@example.com")
	chef := env.register(t, "chef@example.com")

	base := time.Now().Add(-time.Hour)
	env.seedRecipe(t, chef.ID, "Stew", base)
	env.seedRecipe(t, chef.ID, "Soup", base.Add(time.Minute))
	env.seedRecipe(t, chef.ID, "Cocoa", base.Add(2*time.Minute))

	_, err := env.service.Subscribe(ctx, chef.ID, follower.ID, 0)
	require.NoError(t, err)

	profiles, count, err := env.service.GetSubscriptions(ctx, follower.ID, 1, 10, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, profiles, 1)

	p := profiles[0]
	assert.Equal(t, chef.ID, p.ID)
	assert.True(t, p.IsSubscribed)
	assert.EqualValues(t, 3, p.RecipesCount)
	// recipes_limit truncates the embedded list, newest first.
	require.Len(t, p.Recipes, 2)
	assert.Equal(t, "Cocoa", p.Recipes[0].Name)
	assert.Equal(t, "Soup", p.Recipes[1].Name)
}

func TestGetSubscriptionsEmpty(t *testing.T) {
	env := newTestEnv(t)
	follower := env.register(t, "reader@example.com")

	profiles, count, err := env.service.GetSubscriptions(context.Background(), follower.ID, 1, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, profiles)
}

func TestGetUsersSubscribedFlags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	follower := env.register(t, "reader@example.com")
	followed := env.register(t, "chef@example.com")
	other := env.register(t, "rival@example.com")

	_, err := env.service.Subscribe(ctx, followed.ID, follower.ID, 0)
	require.NoError(t, err)

	users, count, err := env.service.GetUsers(ctx, 1, 10, follower.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	flags := map[string]bool{}
	for _, u := range users {
		flags[u.ID] = u.IsSubscribed
	}
	assert.True(t, flags[followed.ID])
	assert.False(t, flags[other.ID])
	assert.False(t, flags[follower.ID])
}
