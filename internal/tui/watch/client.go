package watch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// healthMsg carries a /healthz poll result.
type healthMsg struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	LogsStored    int    `json:"logs_stored"`
	Operations    int    `json:"operations"`
}

// logsMsg carries a /logs poll result.
type logsMsg struct {
	Logs []logSummary `json:"logs"`
}

type logSummary struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
	ExitCode  int    `json:"exit_code"`
}

// errMsg reports a failed poll.
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

var httpClient = &http.Client{Timeout: 5 * time.Second}

func getJSON(apiURL, apiKey, path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, apiURL+path, nil)
	if err != nil {
		return err
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// fetchHealth polls /healthz.
func fetchHealth(apiURL, apiKey string) tea.Msg {
	var h healthMsg
	if err := getJSON(apiURL, apiKey, "/healthz", &h); err != nil {
		return errMsg{err}
	}
	return h
}

// fetchLogs polls /logs.
func fetchLogs(apiURL, apiKey string) tea.Msg {
	var l logsMsg
	if err := getJSON(apiURL, apiKey, "/logs", &l); err != nil {
		return errMsg{err}
	}
	return l
}
