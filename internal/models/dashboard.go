package models

// DashboardSummary aggregates a single day's activity for the admin
// dashboard.
type DashboardSummary struct {
	Date         string        `json:"date"`
	TodayCount   int           `json:"today_count"`
	OpenCount    int           `json:"open_count"`
	StudentCount int           `json:"student_count"`
	Recent       []EntryDetail `json:"recent"`
}
