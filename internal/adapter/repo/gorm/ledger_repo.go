package gormrepo

import (
	"context"
	"encoding/json"

	"farmsession/internal/adapter/repo/gorm/model"
	"farmsession/internal/app/ports"
	"farmsession/internal/domain/farm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LedgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) LedgerRepo {
	return LedgerRepo{db: db}
}

func (r LedgerRepo) Append(ctx context.Context, entry ports.LedgerEntry) error {
	payload := entry.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return dbFrom(ctx, r.db).Create(&model.LedgerEntry{
		ID:        entry.ID,
		FarmID:    entry.FarmID,
		Kind:      string(entry.Kind),
		Item:      string(entry.Item),
		Payload:   string(b),
		CreatedAt: entry.CreatedAt,
	}).Error
}

// ListByFarmID returns entries of kind, or every entry when kind is empty.
func (r LedgerRepo) ListByFarmID(ctx context.Context, farmID int64, kind ports.LedgerEntryKind) ([]ports.LedgerEntry, error) {
	rows := []model.LedgerEntry{}
	query := dbFrom(ctx, r.db).
		Where(&model.LedgerEntry{FarmID: farmID, Kind: string(kind)}).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "created_at"}}},
		})
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ports.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		var payload map[string]any
		if len(row.Payload) > 0 {
			_ = json.Unmarshal([]byte(row.Payload), &payload)
		}
		out = append(out, ports.LedgerEntry{
			ID:        row.ID,
			FarmID:    row.FarmID,
			Kind:      ports.LedgerEntryKind(row.Kind),
			Item:      farm.ItemName(row.Item),
			Payload:   payload,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}
