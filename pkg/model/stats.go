package model

// Statistics summarizes activity observed by the core.
type Statistics struct {
	TotalAttempts int          `json:"total_attempts"`
	NormalCount   int          `json:"normal_count"`
	DuressCount   int          `json:"duress_count"`
	AlertsSent    int          `json:"alerts_sent"`
	RecentEvents  []AlertEvent `json:"recent_events"`
}
