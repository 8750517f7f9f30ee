package domain

import "time"

type Hotel struct {
	ID           int64
	Name         string
	Location     *string
	TallyFormURL *string
	SheetID      *string
	SheetURL     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
