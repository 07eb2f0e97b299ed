package domain

// NodeInfo describes the generator behind a service instance.
type NodeInfo struct {
	Name          string `json:"name"`
	OriginID      int64  `json:"origin_id"`
	OriginSource  string `json:"origin_source"`
	ProcessID     int64  `json:"process_id"`
	ProcessSource string `json:"process_source"`
	EpochMS       int64  `json:"epoch_ms"`
	Clock         string `json:"clock"`
	Policy        string `json:"regression_policy"`
}

type HealthStatus string

const (
	HealthOK       HealthStatus = "ok"
	HealthDegraded HealthStatus = "degraded"
)

// Conflict is a peer generating with the same origin/process pair.
type Conflict struct {
	Name string `json:"name"`
	Addr string `json:"addr"`
}

// Health reports whether IDs from this node can be trusted to be unique.
type Health struct {
	Status    HealthStatus `json:"status"`
	Conflicts []Conflict   `json:"conflicts,omitempty"`
}
