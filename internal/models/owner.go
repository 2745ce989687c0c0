package models

// OwnerKind tags the entity a comment or attachment belongs to.
// Tasks are the only owner today; the tag keeps the reference
// extensible without implicit type strings.
type OwnerKind string

const OwnerKindTask OwnerKind = "task"
