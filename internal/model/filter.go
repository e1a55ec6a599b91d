package model

import "time"

// ValueFilter holds query parameters for listing dated values.
// Zero-valued fields are not applied. To is exclusive.
type ValueFilter struct {
	TypeIDs  []int64
	ObjectID string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// ValueTypeFilter holds query parameters for listing value types.
type ValueTypeFilter struct {
	ObjectKind string
	Slugs      []string
}
