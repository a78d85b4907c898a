package domain

import "time"

// Category classifies incidents (potholes, lighting, waste, ...). Managed by
// administrators; inactive categories stay attached to old incidents but
// cannot be used for new reports.
type Category struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
