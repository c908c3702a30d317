package models

// HealthCheckResponse returns the health check response duh
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}

// ServiceInfoResponse describes the running service at the root path
type ServiceInfoResponse struct {
	Status   string   `json:"status"`
	Service  string   `json:"service"`
	Storage  string   `json:"storage"`
	Database string   `json:"database"`
	Version  string   `json:"version"`
	Features []string `json:"features"`
}
