package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

// CuratedVillage is a database row of the lookup table. Rows override or extend
// the built-in villages by name.
type CuratedVillage struct {
	ID        int            `gorm:"primary_key" json:"id"`
	State     string         `gorm:"index;size:50;not null" json:"state"`
	District  string         `gorm:"size:100" json:"district"`
	Village   string         `gorm:"uniqueIndex;size:100;not null" json:"village"`
	Record    datatypes.JSON `gorm:"not null" json:"record"`
	IsActive  *bool          `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func NewCuratedVillage(state, district, village string, rec AssetRecord) (*CuratedVillage, error) {
	village = strings.TrimSpace(village)
	if village == "" {
		return nil, ErrVillageRequired
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("curated village %q: %w", village, err)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	active := true
	return &CuratedVillage{
		State:    strings.TrimSpace(state),
		District: strings.TrimSpace(district),
		Village:  village,
		Record:   datatypes.JSON(raw),
		IsActive: &active,
	}, nil
}

// AssetRecord decodes and validates the stored record.
func (c CuratedVillage) AssetRecord() (AssetRecord, error) {
	var rec AssetRecord
	if err := json.Unmarshal(c.Record, &rec); err != nil {
		return AssetRecord{}, fmt.Errorf("curated village %q: %w", c.Village, err)
	}
	if err := rec.Validate(); err != nil {
		return AssetRecord{}, fmt.Errorf("curated village %q: %w", c.Village, err)
	}
	return rec, nil
}

func UpsertCuratedVillage(ctx context.Context, input *CuratedVillage) error {
	db := config.GetDB()
	if db == nil {
		return utils.ErrorServiceNotReady
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "village"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "district", "record", "is_active", "updated_at"}),
	}).Create(input).Error
}

func GetCuratedVillages(ctx context.Context) ([]*CuratedVillage, error) {
	db := config.GetDB()
	if db == nil {
		return nil, utils.ErrorServiceNotReady
	}
	var results []*CuratedVillage
	err := db.WithContext(ctx).Where("is_active = ?", true).Order("state, village").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
