package wanmon

import (
	"time"

	"mikronet/internal/models"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Create(m *models.WanMonitor) error { return r.db.Create(m).Error }
func (r *Repo) Save(m *models.WanMonitor) error   { return r.db.Save(m).Error }
func (r *Repo) Delete(id uint) error {
	return r.db.Delete(&models.WanMonitor{}, id).Error
}

func (r *Repo) Get(id uint) (*models.WanMonitor, error) {
	var m models.WanMonitor
	if err := r.db.First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) List() ([]models.WanMonitor, error) {
	var out []models.WanMonitor
	err := r.db.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *Repo) ListActive() ([]models.WanMonitor, error) {
	var out []models.WanMonitor
	err := r.db.Where("is_active = ?", true).Order("id").Find(&out).Error
	return out, err
}

// RecordResult updates the monitor's current-status fields and appends one
// history row.
func (r *Repo) RecordResult(monitorID uint, at time.Time, res PingResult) error {
	err := r.db.Model(&models.WanMonitor{}).Where("id = ?", monitorID).
		Updates(map[string]any{
			"last_ping_time":    at,
			"last_ping_success": res.Success,
			"last_ping_latency": res.Latency,
		}).Error
	if err != nil {
		return err
	}
	var msg *string
	if res.Error != nil {
		msg = res.Error
	}
	return r.db.Create(&models.WanPingHistory{
		WanMonitorID: monitorID,
		PingTime:     at,
		Success:      res.Success,
		Latency:      res.Latency,
		ErrorMessage: msg,
	}).Error
}

// PruneHistory hard-deletes everything outside the most-recent limit rows,
// ordered by ping time.
func (r *Repo) PruneHistory(monitorID uint, limit int) error {
	var total int64
	if err := r.db.Model(&models.WanPingHistory{}).
		Where("wan_monitor_id = ?", monitorID).Count(&total).Error; err != nil {
		return err
	}
	if total <= int64(limit) {
		return nil
	}
	keep := r.db.Model(&models.WanPingHistory{}).
		Select("id").
		Where("wan_monitor_id = ?", monitorID).
		Order("ping_time DESC").
		Limit(limit)
	return r.db.Unscoped().
		Where("wan_monitor_id = ? AND id NOT IN (?)", monitorID, keep).
		Delete(&models.WanPingHistory{}).Error
}

func (r *Repo) HistoryCount(monitorID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.WanPingHistory{}).
		Where("wan_monitor_id = ?", monitorID).Count(&n).Error
	return n, err
}

func (r *Repo) HistorySince(monitorID uint, since time.Time) ([]models.WanPingHistory, error) {
	var out []models.WanPingHistory
	err := r.db.Where("wan_monitor_id = ? AND ping_time >= ?", monitorID, since).
		Order("ping_time DESC").Find(&out).Error
	return out, err
}

// SeedDefaults creates the stock public-DNS monitors when the table is empty.
func (r *Repo) SeedDefaults() error {
	var n int64
	if err := r.db.Model(&models.WanMonitor{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	defaults := []models.WanMonitor{
		{Name: "Google DNS", Host: "8.8.8.8", Description: "Google Public DNS Server", IsActive: true},
		{Name: "Cloudflare DNS", Host: "1.1.1.1", Description: "Cloudflare Public DNS Server", IsActive: true},
	}
	for i := range defaults {
		if err := r.db.Create(&defaults[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
