package models

// EntityStatus tags catalog rows instead of deleting them.
type EntityStatus string

const (
	StatusActive   EntityStatus = "ACTIVE"
	StatusArchived EntityStatus = "ARCHIVED"
)
