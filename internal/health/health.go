package health

import (
	"context"
	"time"

	"odl-backend/internal/cache"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type HealthChecker struct {
	db *pgxpool.Pool
}

type HealthStatus struct {
	Status   string         `json:"status"`
	Database DatabaseHealth `json:"database"`
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type DetailedStatus struct {
	Status        string         `json:"status"`
	Database      DatabaseHealth `json:"database"`
	Redis         string         `json:"redis"`
	CPUPercent    float64        `json:"cpu_percent"`
	MemoryPercent float64        `json:"memory_percent"`
}

func NewHealthChecker(db *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{db: db}
}

func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := h.checkDatabase()

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
	}
}

// CheckDetailed adds Redis and host figures. Redis being down does not
// make the service unhealthy, only degraded.
func (h *HealthChecker) CheckDetailed() DetailedStatus {
	basic := h.CheckBasic()

	redisStatus := "healthy"
	if !cache.IsHealthy() {
		redisStatus = "unavailable"
	}

	cpuPercent := 0.0
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
	}

	memPercent := 0.0
	if stats, err := mem.VirtualMemory(); err == nil {
		memPercent = stats.UsedPercent
	}

	return DetailedStatus{
		Status:        basic.Status,
		Database:      basic.Database,
		Redis:         redisStatus,
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
	}
}

func (h *HealthChecker) checkDatabase() DatabaseHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return DatabaseHealth{Status: "healthy", ResponseTime: responseTime}
}
