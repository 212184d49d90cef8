package models

import "gorm.io/gorm"

// HotspotUser — captive-portal login account mirrored from a device.
// Username is the natural key within one device.
type HotspotUser struct {
	gorm.Model
	DeviceID uint   `gorm:"index;uniqueIndex:ux_hotspot_user,priority:1"`
	Username string `gorm:"size:100;uniqueIndex:ux_hotspot_user,priority:2"`
	Password string `gorm:"size:255"`
	Profile  string `gorm:"size:100"` // profile name on the device, not a FK
	Comment  string `gorm:"size:255"`
	Disabled bool
	BytesIn  int64
	BytesOut int64
	Uptime   int64 // seconds
}

// PppoeUser — PPP secret mirrored from a device, extended with locally-owned
// customer metadata the device never sees.
type PppoeUser struct {
	gorm.Model
	DeviceID uint   `gorm:"index;uniqueIndex:ux_pppoe_user,priority:1"`
	Username string `gorm:"size:100;uniqueIndex:ux_pppoe_user,priority:2"`
	Password string `gorm:"size:255"`
	Profile  string `gorm:"size:100"`
	Service  string `gorm:"size:50"`
	CallerID string `gorm:"size:100"`
	Comment  string `gorm:"size:255"`
	Disabled bool
	BytesIn  int64
	BytesOut int64
	Uptime   int64

	// Locally-owned fields, never touched by pull-sync.
	ContactName      string `gorm:"size:100"`
	ContactPhone     string `gorm:"size:50"`
	ContactWhatsapp  string `gorm:"size:50"`
	CustomerName     string `gorm:"size:100"`
	CustomerAddress  string `gorm:"size:255"`
	IPAddress        string `gorm:"size:45"`
	ServiceCost      float64
	ServicePackageID *uint `gorm:"index"`
}

type HotspotProfile struct {
	gorm.Model
	DeviceID       uint   `gorm:"index;uniqueIndex:ux_hotspot_profile,priority:1"`
	Name           string `gorm:"size:100;uniqueIndex:ux_hotspot_profile,priority:2"`
	RateLimit      string `gorm:"size:64"` // "up/down", e.g. "5M/5M"
	SessionTimeout *int64 // seconds
	SharedUsers    int    `gorm:"default:1"`
}

type PppoeProfile struct {
	gorm.Model
	DeviceID       uint   `gorm:"index;uniqueIndex:ux_pppoe_profile,priority:1"`
	Name           string `gorm:"size:100;uniqueIndex:ux_pppoe_profile,priority:2"`
	RateLimit      string `gorm:"size:64"`
	SessionTimeout *int64
	LocalAddress   string `gorm:"size:100"`
	RemoteAddress  string `gorm:"size:100"`
}

// ServicePackage — billing package a PPPoE subscriber can be linked to.
type ServicePackage struct {
	gorm.Model
	Name          string `gorm:"size:100;uniqueIndex"`
	Description   string `gorm:"size:255"`
	Price         float64
	BandwidthUp   string `gorm:"size:32"`
	BandwidthDown string `gorm:"size:32"`
	DurationDays  int    `gorm:"default:30"`
	IsActive      bool   `gorm:"default:true"`
}
