package devices

import (
	"time"

	"mikronet/internal/models"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Create(d *models.Device) error { return r.db.Create(d).Error }
func (r *Repo) Update(d *models.Device) error { return r.db.Save(d).Error }

// Delete is hard (Unscoped): Name carries a unique index, and a soft-deleted
// row would block re-registering a device under the same name.
func (r *Repo) Delete(id uint) error {
	return r.db.Unscoped().Delete(&models.Device{}, id).Error
}

func (r *Repo) Get(id uint) (*models.Device, error) {
	var d models.Device
	if err := r.db.First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repo) List() ([]models.Device, error) {
	var out []models.Device
	err := r.db.Order("id").Find(&out).Error
	return out, err
}

// MarkSynced sets the online flag and stamps last_sync in one update.
func (r *Repo) MarkSynced(id uint, online bool) error {
	now := time.Now()
	return r.db.Model(&models.Device{}).Where("id = ?", id).
		Updates(map[string]any{"is_online": online, "last_sync": now}).Error
}

// ── device stats time series (append-only) ──────────────────

func (r *Repo) RecordStat(s *models.DeviceStat) error { return r.db.Create(s).Error }

func (r *Repo) LatestStat(deviceID uint) (*models.DeviceStat, error) {
	var s models.DeviceStat
	err := r.db.Where("device_id = ?", deviceID).
		Order("recorded_at DESC").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) StatsSince(deviceID uint, since time.Time) ([]models.DeviceStat, error) {
	var out []models.DeviceStat
	err := r.db.Where("device_id = ? AND recorded_at >= ?", deviceID, since).
		Order("recorded_at DESC").Find(&out).Error
	return out, err
}
