package models

import "time"

type Attachment struct {
	ID        int64
	Name      string
	Path      string
	OwnerKind OwnerKind
	OwnerID   int64
	UserID    string
	CreatedAt time.Time
}
