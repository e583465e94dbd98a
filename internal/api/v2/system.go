package api

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// SystemInfo describes the host serving the API during election day.
type SystemInfo struct {
	OS            string    `json:"os"`
	Architecture  string    `json:"architecture"`
	Platform      string    `json:"platform"`
	KernelVersion string    `json:"kernel_version"`
	HostUptime    uint64    `json:"host_uptime_seconds"`
	AppStart      time.Time `json:"app_start_time"`
	AppUptime     int64     `json:"app_uptime_seconds"`
	NumCPU        int       `json:"num_cpu"`
	NumGoroutine  int       `json:"num_goroutine"`
	GoVersion     string    `json:"go_version"`

	MemoryTotal uint64  `json:"memory_total"`
	MemoryUsed  uint64  `json:"memory_used"`
	MemoryUsage float64 `json:"memory_usage_percent"`
	ProcessMem  float64 `json:"process_memory_mb"`
}

func (c *Controller) initSystemRoutes() {
	c.Group.GET("/system", c.GetSystemInfo)
}

// GetSystemInfo handles GET /api/v2/system
func (c *Controller) GetSystemInfo(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	hostInfo, err := host.InfoWithContext(reqCtx)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get host information", http.StatusInternalServerError)
	}

	memInfo, err := mem.VirtualMemoryWithContext(reqCtx)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get memory information", http.StatusInternalServerError)
	}

	info := SystemInfo{
		OS:            runtime.GOOS,
		Architecture:  runtime.GOARCH,
		Platform:      hostInfo.Platform,
		KernelVersion: hostInfo.KernelVersion,
		HostUptime:    hostInfo.Uptime,
		AppStart:      c.startTime,
		AppUptime:     int64(time.Since(c.startTime).Seconds()),
		NumCPU:        runtime.NumCPU(),
		NumGoroutine:  runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
		MemoryTotal:   memInfo.Total,
		MemoryUsed:    memInfo.Used,
		MemoryUsage:   memInfo.UsedPercent,
	}

	// Process memory is best effort; some containers hide /proc details.
	if proc, err := process.NewProcessWithContext(reqCtx, int32(os.Getpid())); err == nil {
		if procMem, err := proc.MemoryInfoWithContext(reqCtx); err == nil && procMem != nil {
			info.ProcessMem = float64(procMem.RSS) / 1024 / 1024
		}
	}

	return ctx.JSON(http.StatusOK, info)
}
