package model

// CommandResult is the outcome of a single command against a single
// server. Error is set iff Success is false.
type CommandResult struct {
	ServerName    string         `json:"server_name"`
	Command       string         `json:"command"`
	Success       bool           `json:"success"`
	Result        map[string]any `json:"result"`
	ExecutionTime float64        `json:"execution_time"`
	Error         string         `json:"error,omitempty"`
}

// BulkCommandResult aggregates per-server outcomes of one fan-out
// dispatch. Every target name has exactly one entry in Results, so
// SuccessCount+FailedCount always equals len(TargetServers).
type BulkCommandResult struct {
	Command       string                   `json:"command"`
	TargetServers []string                 `json:"target_servers"`
	Results       map[string]CommandResult `json:"results"`
	SuccessCount  int                      `json:"success_count"`
	FailedCount   int                      `json:"failed_count"`
}
