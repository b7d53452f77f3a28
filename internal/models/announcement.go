package models

// Announcement is a barangay notice shown on the dashboard.
type Announcement struct {
	ID        FlexString `json:"_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Category  string     `json:"category,omitempty"`
	CreatedAt FlexTime   `json:"createdAt"`
	UpdatedAt FlexTime   `json:"updatedAt"`
}
