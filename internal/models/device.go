package models

import (
	"time"

	"gorm.io/gorm"
)

// Device — a managed network device. Only Type == "MikroTik" gets RouterOS
// API integration; other types are inventory-only rows.
type Device struct {
	gorm.Model
	Name     string `gorm:"size:100;uniqueIndex"`
	Type     string `gorm:"size:50;index"`
	Host     string `gorm:"size:255"`
	Port     int    `gorm:"default:8728"`
	Username string `gorm:"size:100"`
	Password string `gorm:"size:255" json:"-"`
	IsOnline bool
	LastSync *time.Time
}

const DeviceTypeMikroTik = "MikroTik"

// DeviceStat — one point-in-time resource snapshot, append-only.
type DeviceStat struct {
	gorm.Model
	DeviceID    uint `gorm:"index:idx_stats_device_time,priority:1"`
	CPUUsage    float64
	MemoryUsage float64
	DiskUsage   float64
	Uptime      int64 // seconds
	Temperature *float64
	Voltage     *float64
	RecordedAt  time.Time `gorm:"index:idx_stats_device_time,priority:2"`
}
