package tag

import (
	"context"
	"fmt"
	"testing"

	"foodgram-backend/domain"
	"foodgram-backend/entities"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) TagService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Tag{}))
	return NewTagService(NewTagRepository(db))
}

func TestCreateTag(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	res, err := service.CreateTag(ctx, domain.CreateTagRequest{
		Name:  "Breakfast",
		Color: "#E26C2D",
		Slug:  "breakfast",
	}, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "breakfast", res.Slug)

	_, err = service.CreateTag(ctx, domain.CreateTagRequest{
		Name:  "Second breakfast",
		Color: "#49B64E",
		Slug:  "breakfast",
	}, domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestTagWritesRequireAdmin(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.CreateTag(ctx, domain.CreateTagRequest{Name: "Dinner", Slug: "dinner"}, domain.RoleUser)
	assert.ErrorIs(t, err, domain.ErrUserNotAllowed)

	_, err = service.UpdateTag(ctx, uuid.NewString(), domain.UpdateTagRequest{Name: "Dinner"}, domain.RoleUser)
	assert.ErrorIs(t, err, domain.ErrUserNotAllowed)

	assert.ErrorIs(t, service.DeleteTag(ctx, uuid.NewString(), domain.RoleUser), domain.ErrUserNotAllowed)
}

func TestUpdateTag(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	created, err := service.CreateTag(ctx, domain.CreateTagRequest{
		Name:  "Breakfast",
		Color: "#E26C2D",
		Slug:  "breakfast",
	}, domain.RoleAdmin)
	require.NoError(t, err)

	updated, err := service.UpdateTag(ctx, created.ID, domain.UpdateTagRequest{Name: "Brunch"}, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "Brunch", updated.Name)
	assert.Equal(t, "breakfast", updated.Slug)

	_, err = service.UpdateTag(ctx, uuid.NewString(), domain.UpdateTagRequest{Name: "Brunch"}, domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrTagNotFound)
}

func TestDeleteTag(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	created, err := service.CreateTag(ctx, domain.CreateTagRequest{
		Name:  "Breakfast",
		Color: "#E26C2D",
		Slug:  "breakfast",
	}, domain.RoleAdmin)
	require.NoError(t, err)

	require.NoError(t, service.DeleteTag(ctx, created.ID, domain.RoleAdmin))

	_, err = service.GetTagDetail(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrTagNotFound)
}

func TestGetTagsSorted(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	for _, slug := range []string{"supper", "breakfast", "dinner"} {
		_, err := service.CreateTag(ctx, domain.CreateTagRequest{Name: slug, Slug: slug}, domain.RoleAdmin)
		require.NoError(t, err)
	}

	tags, err := service.GetTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "breakfast", tags[0].Name)
	assert.Equal(t, "dinner", tags[1].Name)
	assert.Equal(t, "supper", tags[2].Name)
}
