package gormrepo

import (
	"context"
	"fmt"

	"farmsession/internal/adapter/repo/gorm/model"
	"farmsession/internal/app/ports"
	"farmsession/internal/domain/farm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActionRepo struct {
	db *gorm.DB
}

func NewActionRepo(db *gorm.DB) ActionRepo {
	return ActionRepo{db: db}
}

func (r ActionRepo) ExistingIDs(ctx context.Context, farmID int64, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(ids) == 0 {
		return out, nil
	}
	var found []string
	err := dbFrom(ctx, r.db).
		Model(&model.FarmAction{}).
		Where("farm_id = ? AND action_id IN ?", farmID, ids).
		Pluck("action_id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

func (r ActionRepo) Append(ctx context.Context, records []ports.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]model.FarmAction, 0, len(records))
	for _, rec := range records {
		payload, err := farm.EncodeAction(rec.Action.Action)
		if err != nil {
			return fmt.Errorf("encode action %s: %w", rec.Action.ID, err)
		}
		rows = append(rows, model.FarmAction{
			FarmID:      rec.FarmID,
			ActionID:    rec.Action.ID,
			ActionType:  string(rec.Action.Action.Type()),
			Payload:     string(payload),
			CreatedAt:   rec.Action.CreatedAt,
			ConfirmedAt: rec.ConfirmedAt,
		})
	}
	res := dbFrom(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(rows)) {
		return ports.ErrConflict
	}
	return nil
}

// ListByFarmID returns the most recent records in confirmation order.
func (r ActionRepo) ListByFarmID(ctx context.Context, farmID int64, limit int) ([]ports.ActionRecord, error) {
	rows := []model.FarmAction{}
	query := dbFrom(ctx, r.db).
		Where(&model.FarmAction{FarmID: farmID}).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{
				{Column: clause.Column{Name: "confirmed_at"}, Desc: true},
				{Column: clause.Column{Name: "created_at"}, Desc: true},
			},
		})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]ports.ActionRecord, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		a, err := farm.DecodeAction([]byte(row.Payload))
		if err != nil {
			return nil, fmt.Errorf("decode action %s: %w", row.ActionID, err)
		}
		out = append(out, ports.ActionRecord{
			FarmID:      row.FarmID,
			Action:      farm.LoggedAction{ID: row.ActionID, Action: a, CreatedAt: row.CreatedAt},
			ConfirmedAt: row.ConfirmedAt,
		})
	}
	return out, nil
}
