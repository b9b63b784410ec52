package internal

import "time"

// Link is a shortening record. ShortCode is unique across all tenants;
// management operations are scoped to TenantID, redirect resolution is not.
type Link struct {
	ID            string    `json:"id"`
	OriginalURL   string    `json:"original_url"`
	ShortCode     string    `json:"short_code"`
	ShortURL      string    `json:"short_url"`
	Description   string    `json:"description"`
	ClickCount    int64     `json:"click_count"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
	CreatedByName string    `json:"created_by_name"`
	TenantID      string    `json:"tenant_id"`
}

// Click is a single resolution event of a short code. The id is exposed
// as a string in API representations.
type Click struct {
	ID        int64     `json:"id,string"`
	LinkID    string    `json:"link_id"`
	ClickedAt time.Time `json:"clicked_at"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
}

// Analytics aggregates clicks for a single link over fixed windows.
type Analytics struct {
	LinkID          string  `json:"link_id"`
	TotalClicks     int64   `json:"total_clicks"`
	ClicksToday     int64   `json:"clicks_today"`
	ClicksThisWeek  int64   `json:"clicks_this_week"`
	ClicksThisMonth int64   `json:"clicks_this_month"`
	RecentClicks    []Click `json:"recent_clicks"`
}

// Identity is the verified caller produced by the identity provider adapter.
type Identity struct {
	Subject     string
	Tenant      string
	DisplayName string
	Email       string
}
