package models

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"poolStats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages int `json:"maxPages"`
	InUse    int `json:"inUse"`
	Idle     int `json:"idle"`
	Retired  int `json:"retired"`
}
