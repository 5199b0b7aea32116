package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AutoAbsenceConfig controls the daily absence-marking job
type AutoAbsenceConfig struct {
	Enabled  bool   `json:"enabled" bson:"enabled"`
	Time     string `json:"time" bson:"time"`         // "hh:mm", local to Timezone
	Timezone string `json:"timezone" bson:"timezone"` // IANA name
}

// SLAConfig controls the approval SLA sweep
type SLAConfig struct {
	DeadlineHours             int `json:"deadlineHours" bson:"deadlineHours"`
	Reminder1Hours            int `json:"reminder1Hours" bson:"reminder1Hours"`
	Reminder2Hours            int `json:"reminder2Hours" bson:"reminder2Hours"`
	EscalateAfterOverdueHours int `json:"escalateAfterOverdueHours" bson:"escalateAfterOverdueHours"`
}

// SystemConfig is the single system-wide configuration document
type SystemConfig struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AutoAbsence AutoAbsenceConfig  `json:"autoAbsence" bson:"autoAbsence"`
	SLA         SLAConfig          `json:"sla" bson:"sla"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// DefaultSystemConfig returns the configuration used when no document
// has been written yet.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		AutoAbsence: AutoAbsenceConfig{
			Enabled:  true,
			Time:     "09:30",
			Timezone: "Asia/Beirut",
		},
		SLA: SLAConfig{
			DeadlineHours:             48,
			Reminder1Hours:            24,
			Reminder2Hours:            36,
			EscalateAfterOverdueHours: 48,
		},
	}
}
