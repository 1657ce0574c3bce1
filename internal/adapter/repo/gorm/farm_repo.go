package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"farmsession/internal/adapter/repo/gorm/model"
	"farmsession/internal/app/ports"
	"farmsession/internal/domain/farm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FarmRepo struct {
	db *gorm.DB
}

func NewFarmRepo(db *gorm.DB) FarmRepo {
	return FarmRepo{db: db}
}

func (r FarmRepo) GetByFarmID(ctx context.Context, farmID int64) (ports.FarmRecord, error) {
	var m model.FarmSession
	if err := dbFrom(ctx, r.db).Where("farm_id = ?", farmID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.FarmRecord{}, ports.ErrNotFound
		}
		return ports.FarmRecord{}, err
	}
	snapshot, err := decodeSnapshot(m)
	if err != nil {
		return ports.FarmRecord{}, fmt.Errorf("decode farm %d: %w", farmID, err)
	}
	return ports.FarmRecord{
		FarmID:    m.FarmID,
		SessionID: m.SessionID,
		Snapshot:  snapshot,
		Version:   m.Version,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func (r FarmRepo) SaveWithVersion(ctx context.Context, rec ports.FarmRecord, expectedVersion int64) error {
	m, err := encodeSnapshot(rec)
	if err != nil {
		return err
	}
	db := dbFrom(ctx, r.db)
	if expectedVersion == 0 {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ports.ErrConflict
		}
		return nil
	}

	updates := map[string]any{
		"session_id": m.SessionID,
		"balance":    m.Balance,
		"fields":     m.Fields,
		"inventory":  m.Inventory,
		"stock":      m.Stock,
		"version":    m.Version,
		"updated_at": m.UpdatedAt,
	}
	res := db.Model(&model.FarmSession{}).
		Where("farm_id = ? AND version = ?", rec.FarmID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrConflict
	}
	return nil
}

func encodeSnapshot(rec ports.FarmRecord) (model.FarmSession, error) {
	fields, err := json.Marshal(nonNilFields(rec.Snapshot.Fields))
	if err != nil {
		return model.FarmSession{}, err
	}
	inventory, err := json.Marshal(nonNilInventory(rec.Snapshot.Inventory))
	if err != nil {
		return model.FarmSession{}, err
	}
	stock, err := json.Marshal(nonNilInventory(rec.Snapshot.Stock))
	if err != nil {
		return model.FarmSession{}, err
	}
	return model.FarmSession{
		FarmID:    rec.FarmID,
		SessionID: rec.SessionID,
		Balance:   rec.Snapshot.Balance.String(),
		Fields:    string(fields),
		Inventory: string(inventory),
		Stock:     string(stock),
		Version:   rec.Version,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func decodeSnapshot(m model.FarmSession) (farm.Snapshot, error) {
	balance, err := farm.ParseQuantity(m.Balance)
	if err != nil {
		return farm.Snapshot{}, err
	}
	out := farm.Snapshot{
		ID:        m.FarmID,
		Balance:   balance,
		Fields:    farm.Fields{},
		Inventory: farm.Inventory{},
		Stock:     farm.Inventory{},
	}
	if err := json.Unmarshal([]byte(m.Fields), &out.Fields); err != nil {
		return farm.Snapshot{}, fmt.Errorf("fields: %w", err)
	}
	if err := json.Unmarshal([]byte(m.Inventory), &out.Inventory); err != nil {
		return farm.Snapshot{}, fmt.Errorf("inventory: %w", err)
	}
	if err := json.Unmarshal([]byte(m.Stock), &out.Stock); err != nil {
		return farm.Snapshot{}, fmt.Errorf("stock: %w", err)
	}
	return out, nil
}

func nonNilFields(f farm.Fields) farm.Fields {
	if f == nil {
		return farm.Fields{}
	}
	return f
}

func nonNilInventory(i farm.Inventory) farm.Inventory {
	if i == nil {
		return farm.Inventory{}
	}
	return i
}
