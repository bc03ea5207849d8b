package models

// NodeInfo describes the running server.
type NodeInfo struct {
	Version        string `json:"version"`
	StorageDriver  string `json:"storage_driver"`
	Uptime         string `json:"uptime"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
	MaxUploadSize  string `json:"max_upload_size"`
	GoVersion      string `json:"go_version"`
}
