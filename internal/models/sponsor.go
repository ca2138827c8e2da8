package models

import "time"

// Sponsor is an organisation on whose behalf passes are issued. Sponsors are owned by the
// partnerships service and are read-only here.
type Sponsor struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	DailyRate string    `json:"dailyRate"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
