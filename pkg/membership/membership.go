// Package membership implements the join-table rows whose mere existence
// encodes a boolean user-to-target relationship: favorites, shopping cart
// entries and follows. One relation, three instantiations.
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Relation struct {
	db           *gorm.DB
	table        string
	ownerColumn  string
	targetColumn string
	errDuplicate error
	errAbsent    error
}

func NewRelation(db *gorm.DB, table, ownerColumn, targetColumn string, errDuplicate, errAbsent error) *Relation {
	return &Relation{
		db:           db,
		table:        table,
		ownerColumn:  ownerColumn,
		targetColumn: targetColumn,
		errDuplicate: errDuplicate,
		errAbsent:    errAbsent,
	}
}

// Add creates the membership row. A pre-existing pair, whether observed by
// the lookup or by losing a race on the unique index, yields the relation's
// duplicate error instead of a raw storage error.
func (r *Relation) Add(ctx context.Context, ownerID, targetID uuid.UUID) error {
	exists, err := r.Exists(ctx, ownerID, targetID)
	if err != nil {
		return err
	}
	if exists {
		return r.errDuplicate
	}

	row := map[string]interface{}{
		"id":           uuid.New(),
		r.ownerColumn:  ownerID,
		r.targetColumn: targetID,
		"created_at":   time.Now(),
	}
	if err := r.db.WithContext(ctx).Table(r.table).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.errDuplicate
		}
		return err
	}
	return nil
}

// Remove deletes the membership row. Removing a pair that was never added
// is an error, not a silent no-op.
func (r *Relation) Remove(ctx context.Context, ownerID, targetID uuid.UUID) error {
	res := r.db.WithContext(ctx).Exec(
		fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s = ?", r.table, r.ownerColumn, r.targetColumn),
		ownerID, targetID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.errAbsent
	}
	return nil
}

func (r *Relation) Exists(ctx context.Context, ownerID, targetID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(r.table).
		Where(fmt.Sprintf("%s = ? AND %s = ?", r.ownerColumn, r.targetColumn), ownerID, targetID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Members reports which of the given targets the owner holds a membership
// row for. Used to project the boolean flags onto list responses with a
// single query instead of one existence check per row.
func (r *Relation) Members(ctx context.Context, ownerID uuid.UUID, targetIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	members := make(map[uuid.UUID]bool, len(targetIDs))
	if len(targetIDs) == 0 {
		return members, nil
	}

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Table(r.table).
		Where(fmt.Sprintf("%s = ? AND %s IN ?", r.ownerColumn, r.targetColumn), ownerID, targetIDs).
		Pluck(r.targetColumn, &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		members[id] = true
	}
	return members, nil
}
