package locks

import "time"

// JobLock is a named advisory lock row. A lock is held while LockedAt is set
// and newer than the caller's stale timeout.
type JobLock struct {
	Name      string     `gorm:"type:varchar(100);primaryKey" json:"name"`
	LockedAt  *time.Time `json:"locked_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName sets the table name for JobLock
func (JobLock) TableName() string {
	return "job_locks"
}
