package monitoring

import "time"

// Stats is the JSON view served by the stats endpoint.
type Stats struct {
	Uptime            string  `json:"uptime"`
	UptimeSeconds     float64 `json:"uptimeSeconds"`
	TotalRequests     int64   `json:"totalRequests"`
	TotalErrors       int64   `json:"totalErrors"`
	AvgRequestMillis  float64 `json:"avgRequestMs"`
	TotalCommands     int64   `json:"totalCommands"`
	FailedCommands    int64   `json:"failedCommands"`
	RateLimited       int64   `json:"rateLimited"`
	ActiveConnections int64   `json:"activeConnections"`
	ActiveSessions    int64   `json:"activeSessions"`
}

// Stats returns the current snapshot.
func (m *Metrics) Stats() Stats {
	if m == nil {
		return Stats{}
	}

	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()

	uptime := time.Since(m.startTime)
	out := Stats{
		Uptime:            uptime.Truncate(time.Second).String(),
		UptimeSeconds:     uptime.Seconds(),
		TotalRequests:     s.TotalRequests,
		TotalErrors:       s.TotalErrors,
		TotalCommands:     s.TotalCommands,
		FailedCommands:    s.FailedCommands,
		RateLimited:       s.RateLimited,
		ActiveConnections: s.ActiveConnections,
		ActiveSessions:    s.ActiveSessions,
	}
	if s.RequestCount > 0 {
		out.AvgRequestMillis = s.TotalDuration / float64(s.RequestCount) * 1000
	}
	return out
}
