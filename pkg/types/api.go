package types

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// Registered model descriptors.
	Models []ModelDescriptor `json:"models"`
}

// SelectResponse is returned by POST /select.
type SelectResponse struct {
	// The admitted model.
	Model ModelDescriptor `json:"model"`
	// Final selection score in [0,1].
	// example: 0.82
	Score float64 `json:"score" example:"0.82"`
}

// ExecutionReport is the body of POST /executions.
type ExecutionReport struct {
	// Model the metrics belong to.
	// example: tinyllama-1.1b-q4_k_m
	ModelID string `json:"model_id" example:"tinyllama-1.1b-q4_k_m"`
	ExecutionMetrics
}

// ResidentEntry summarizes one resident model for /status.
type ResidentEntry struct {
	// example: tinyllama-1.1b-q4_k_m
	ModelID string `json:"model_id" example:"tinyllama-1.1b-q4_k_m"`
	// Bytes counted against the memory budget.
	ResidentBytes int64 `json:"resident_bytes"`
	// Last time the entry was used (unix seconds).
	// example: 1700000000
	LastUsedUnix int64 `json:"last_used_unix" example:"1700000000"`
	// How many times the entry has been loaded or touched.
	// example: 3
	LoadCount int `json:"load_count" example:"3"`
}

// StatusResponse is the read-only composite view returned by GET /status.
type StatusResponse struct {
	// Current hardware snapshot.
	Hardware HardwareProfile `json:"hardware"`
	// Number of registered models.
	// example: 4
	ModelCount int `json:"model_count" example:"4"`
	// Currently resident models.
	Resident []ResidentEntry `json:"resident"`
	// Total bytes resident against the budget.
	UsedBytes int64 `json:"used_bytes"`
	// Computed memory budget in bytes.
	BudgetBytes int64 `json:"budget_bytes"`
	// Active user preferences.
	Preferences Preferences `json:"preferences"`
	// Total performance records held by the ledger.
	// example: 120
	LedgerRecords int `json:"ledger_records" example:"120"`
	// Total evictions performed to free memory.
	// example: 5
	EvictionsTotal uint64 `json:"evictions_total" example:"5"`
	// Total successful admissions.
	// example: 12
	LoadsTotal uint64 `json:"loads_total" example:"12"`
	// Daemon uptime in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	ServerTimeUnix int64 `json:"server_time_unix"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: no compatible model
	Error string `json:"error" example:"no compatible model"`
	// HTTP status code.
	// example: 422
	Code int `json:"code" example:"422"`
}
