package membership

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"foodgram-backend/entities"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	errDup    = errors.New("already added")
	errAbsent = errors.New("not added")
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Favorite{}))
	return db
}

func TestRelationAddAndExists(t *testing.T) {
	db := openTestDB(t)
	rel := NewRelation(db, "favorites", "user_id", "recipe_id", errDup, errAbsent)
	ctx := context.Background()

	owner := uuid.New()
	target := uuid.New()

	exists, err := rel.Exists(ctx, owner, target)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, rel.Add(ctx, owner, target))

	exists, err = rel.Exists(ctx, owner, target)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRelationAddDuplicate(t *testing.T) {
	db := openTestDB(t)
	rel := NewRelation(db, "favorites", "user_id", "recipe_id", errDup, errAbsent)
	ctx := context.Background()

	owner := uuid.New()
	target := uuid.New()

	require.NoError(t, rel.Add(ctx, owner, target))
	assert.ErrorIs(t, rel.Add(ctx, owner, target), errDup)
}

func TestRelationRemove(t *testing.T) {
	db := openTestDB(t)
	rel := NewRelation(db, "favorites", "user_id", "recipe_id", errDup, errAbsent)
	ctx := context.Background()

	owner := uuid.New()
	target := uuid.New()

	require.NoError(t, rel.Add(ctx, owner, target))
	require.NoError(t, rel.Remove(ctx, owner, target))

	exists, err := rel.Exists(ctx, owner, target)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRelationRemoveAbsent(t *testing.T) {
	db := openTestDB(t)
	rel := NewRelation(db, "favorites", "user_id", "recipe_id", errDup, errAbsent)

	assert.ErrorIs(t, rel.Remove(context.Background(), uuid.New(), uuid.New()), errAbsent)
}

func TestRelationSamePairDifferentOwners(t *testing.T) {
	db := openTestDB(t)
	rel := NewRelation(db, "favorites", "user_id", "recipe_id", errDup, errAbsent)
	ctx := context.Background()

	target := uuid.New()
	first := uuid.New()
	second := uuid.New()

	require.NoError(t, rel.Add(ctx, first, target))
	require.NoError(t, rel.Add(ctx, second, target))

	require.NoError(t, rel.Remove(ctx, first, target))
	exists, err := rel.Exists(ctx, second, target)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRelationMembers(t *testing.T) {
	db := openTestDB(t)
	rel := NewRelation(db, "favorites", "user_id", "recipe_id", errDup, errAbsent)
	ctx := context.Background()

	owner := uuid.New()
	in := uuid.New()
	out := uuid.New()

	require.NoError(t, rel.Add(ctx, owner, in))

	members, err := rel.Members(ctx, owner, []uuid.UUID{in, out})
	require.NoError(t, err)
	assert.True(t, members[in])
	assert.False(t, members[out])

	members, err = rel.Members(ctx, owner, nil)
	require.NoError(t, err)
	assert.Empty(t, members)
}
