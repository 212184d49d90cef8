package models

import (
	"time"

	"gorm.io/gorm"
)

// WanMonitor — an external host probed periodically via ICMP.
// Last* fields are nil until the first probe completes.
type WanMonitor struct {
	gorm.Model
	Name            string `gorm:"size:100"`
	Host            string `gorm:"size:255"`
	Description     string `gorm:"size:255"`
	IsActive        bool   `gorm:"default:true;index"`
	LastPingTime    *time.Time
	LastPingSuccess bool
	LastPingLatency *float64 // milliseconds
}

// WanPingHistory — append-only probe log, capped per monitor by the scheduler.
type WanPingHistory struct {
	gorm.Model
	WanMonitorID uint      `gorm:"index:idx_history_monitor_time,priority:1"`
	PingTime     time.Time `gorm:"index:idx_history_monitor_time,priority:2"`
	Success      bool
	Latency      *float64
	ErrorMessage *string `gorm:"size:255"`
}
