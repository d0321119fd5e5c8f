package models

import (
	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/utils"
)

func MigrateTable() error {
	db := config.GetDB()
	if db == nil {
		return utils.ErrorServiceNotReady
	}
	return db.AutoMigrate(&CuratedVillage{})
}
