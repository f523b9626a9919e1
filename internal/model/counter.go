package model

// Counter backs human-readable business ids (ORD-001, RM-042...). One row
// per entity prefix, advanced with a single atomic update so concurrent
// creators can never draw the same number.
type Counter struct {
	Name string `gorm:"type:varchar(30);primaryKey" json:"name"` // prefix, e.g. "ORD"
	Seq  int64  `gorm:"type:bigint;not null;default:0" json:"seq"`
}
