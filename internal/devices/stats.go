package devices

import (
	"math/rand"
	"time"

	"mikronet/internal/models"
)

// synthesizeStat fabricates a plausible snapshot for devices that have never
// been sampled, so dashboards have something to draw before the first sync.
func synthesizeStat(deviceID uint) *models.DeviceStat {
	temp := float64(35 + rand.Intn(30))
	volt := 11 + rand.Float64()*2
	return &models.DeviceStat{
		DeviceID:    deviceID,
		CPUUsage:    float64(10 + rand.Intn(80)),
		MemoryUsage: float64(20 + rand.Intn(70)),
		DiskUsage:   float64(15 + rand.Intn(60)),
		Uptime:      int64(rand.Intn(86400 * 30)),
		Temperature: &temp,
		Voltage:     &volt,
		RecordedAt:  time.Now(),
	}
}
