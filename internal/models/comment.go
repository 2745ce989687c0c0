package models

import "time"

type Comment struct {
	ID        int64
	Content   string
	OwnerKind OwnerKind
	OwnerID   int64
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
