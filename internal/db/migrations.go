package db

import (
	"mikronet/internal/models"

	"gorm.io/gorm"
)

// Migrate applies schema for all domain entities.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// devices
		&models.Device{},
		&models.DeviceStat{},

		// subscribers (hotspot + pppoe) and their profiles
		&models.HotspotUser{},
		&models.PppoeUser{},
		&models.HotspotProfile{},
		&models.PppoeProfile{},
		&models.ServicePackage{},

		// wan monitoring
		&models.WanMonitor{},
		&models.WanPingHistory{},
	)
}
