package api

import "github.com/mattjoyce/nixgw/internal/nix"

// OpResponse carries the display text of a dispatched operation.
type OpResponse struct {
	Content string `json:"content"`
}

// ErrorResponse is the transport's error channel: caller mistakes and
// internal faults, never failed commands.
type ErrorResponse struct {
	Error   string `json:"error"`
	IsError bool   `json:"is_error"`
}

// HealthzResponse is the /healthz payload.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	LogsStored    int    `json:"logs_stored"`
	Operations    int    `json:"operations"`
}

// OpsResponse lists the dispatch surface.
type OpsResponse struct {
	Operations []nix.OpInfo `json:"operations"`
}

// LogSummary is one entry in the /logs listing.
type LogSummary struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
	ExitCode  int    `json:"exit_code"`
}

// LogListResponse is the /logs payload.
type LogListResponse struct {
	Logs []LogSummary `json:"logs"`
}

// LogDetailResponse is the /logs/{id} payload: the complete archived entry.
type LogDetailResponse struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
	ExitCode  int    `json:"exit_code"`
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
}
