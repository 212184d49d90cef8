package subscribers

import (
	"errors"

	"mikronet/internal/models"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// ── hotspot users ───────────────────────────────────────────

func (r *Repo) CreateHotspotUser(u *models.HotspotUser) error { return r.db.Create(u).Error }
func (r *Repo) SaveHotspotUser(u *models.HotspotUser) error   { return r.db.Save(u).Error }
// Deletes are hard (Unscoped): a soft-deleted row would keep occupying the
// (device_id, name) unique index and block pull-sync from ever re-inserting
// the entity while the device still reports it.
func (r *Repo) DeleteHotspotUser(id uint) error {
	return r.db.Unscoped().Delete(&models.HotspotUser{}, id).Error
}

func (r *Repo) GetHotspotUser(id uint) (*models.HotspotUser, error) {
	var u models.HotspotUser
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindHotspotUser looks up by natural key. Returns (nil, nil) when absent.
func (r *Repo) FindHotspotUser(deviceID uint, username string) (*models.HotspotUser, error) {
	var u models.HotspotUser
	err := r.db.Where("device_id = ? AND username = ?", deviceID, username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) ListHotspotUsers(deviceID uint) ([]models.HotspotUser, error) {
	var out []models.HotspotUser
	err := r.db.Where("device_id = ?", deviceID).Order("username").Find(&out).Error
	return out, err
}

// ── pppoe users ─────────────────────────────────────────────

func (r *Repo) CreatePppoeUser(u *models.PppoeUser) error { return r.db.Create(u).Error }
func (r *Repo) SavePppoeUser(u *models.PppoeUser) error   { return r.db.Save(u).Error }
func (r *Repo) DeletePppoeUser(id uint) error {
	return r.db.Unscoped().Delete(&models.PppoeUser{}, id).Error
}

func (r *Repo) GetPppoeUser(id uint) (*models.PppoeUser, error) {
	var u models.PppoeUser
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) FindPppoeUser(deviceID uint, username string) (*models.PppoeUser, error) {
	var u models.PppoeUser
	err := r.db.Where("device_id = ? AND username = ?", deviceID, username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) ListPppoeUsers(deviceID uint) ([]models.PppoeUser, error) {
	var out []models.PppoeUser
	err := r.db.Where("device_id = ?", deviceID).Order("username").Find(&out).Error
	return out, err
}

// ── profiles ────────────────────────────────────────────────

func (r *Repo) CreateHotspotProfile(p *models.HotspotProfile) error { return r.db.Create(p).Error }
func (r *Repo) SaveHotspotProfile(p *models.HotspotProfile) error   { return r.db.Save(p).Error }
func (r *Repo) DeleteHotspotProfile(id uint) error {
	return r.db.Unscoped().Delete(&models.HotspotProfile{}, id).Error
}

func (r *Repo) FindHotspotProfile(deviceID uint, name string) (*models.HotspotProfile, error) {
	var p models.HotspotProfile
	err := r.db.Where("device_id = ? AND name = ?", deviceID, name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListHotspotProfiles(deviceID uint) ([]models.HotspotProfile, error) {
	var out []models.HotspotProfile
	err := r.db.Where("device_id = ?", deviceID).Order("name").Find(&out).Error
	return out, err
}

func (r *Repo) CreatePppoeProfile(p *models.PppoeProfile) error { return r.db.Create(p).Error }
func (r *Repo) SavePppoeProfile(p *models.PppoeProfile) error   { return r.db.Save(p).Error }
func (r *Repo) DeletePppoeProfile(id uint) error {
	return r.db.Unscoped().Delete(&models.PppoeProfile{}, id).Error
}

func (r *Repo) FindPppoeProfile(deviceID uint, name string) (*models.PppoeProfile, error) {
	var p models.PppoeProfile
	err := r.db.Where("device_id = ? AND name = ?", deviceID, name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListPppoeProfiles(deviceID uint) ([]models.PppoeProfile, error) {
	var out []models.PppoeProfile
	err := r.db.Where("device_id = ?", deviceID).Order("name").Find(&out).Error
	return out, err
}

// ── service packages ────────────────────────────────────────

func (r *Repo) CreateServicePackage(p *models.ServicePackage) error { return r.db.Create(p).Error }
func (r *Repo) SaveServicePackage(p *models.ServicePackage) error   { return r.db.Save(p).Error }
func (r *Repo) DeleteServicePackage(id uint) error {
	return r.db.Unscoped().Delete(&models.ServicePackage{}, id).Error
}

func (r *Repo) GetServicePackage(id uint) (*models.ServicePackage, error) {
	var p models.ServicePackage
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListServicePackages() ([]models.ServicePackage, error) {
	var out []models.ServicePackage
	err := r.db.Order("id").Find(&out).Error
	return out, err
}
