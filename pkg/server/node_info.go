package server

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"gameassets/pkg/models"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
)

// getNodeInfo handles the GET /info endpoint.
func (srv *Server) getNodeInfo(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, srv.collectNodeInfo())
}

func (srv *Server) collectNodeInfo() *models.NodeInfo {
	uptime := int64(time.Since(srv.startedAt).Seconds())
	maxSize := srv.assets.MaxSize()

	maxSizeText := "unlimited"
	if maxSize > 0 {
		maxSizeText = humanize.Bytes(uint64(maxSize))
	}

	return &models.NodeInfo{
		Version:        srv.version,
		StorageDriver:  srv.driver,
		Uptime:         formatUptime(uptime),
		UptimeSeconds:  uptime,
		MaxUploadBytes: maxSize,
		MaxUploadSize:  maxSizeText,
		GoVersion:      runtime.Version(),
	}
}

// testConnection handles the GET /test_connection liveness check.
func (srv *Server) testConnection(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Server is up!")
}

// formatUptime converts seconds to human-readable format.
func formatUptime(seconds int64) string {
	duration := time.Duration(seconds) * time.Second
	const hoursInDay = 24
	const minutesInHour = 60
	days := int(duration.Hours()) / hoursInDay
	hours := int(duration.Hours()) % hoursInDay
	minutes := int(duration.Minutes()) % minutesInHour

	switch {
	case days > 0:
		return strconv.Itoa(days) + "d " + strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
	case hours > 0:
		return strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
	default:
		return strconv.Itoa(minutes) + "m"
	}
}
