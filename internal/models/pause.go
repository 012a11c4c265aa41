package models

type PauseConfig struct {
	PrimaryAuthority         Identity `json:"primary_authority"`
	SecondaryAuthority       Identity `json:"secondary_authority"`
	MaintenancePause         bool     `json:"maintenance_pause"`
	MaintenanceStartTime     int64    `json:"maintenance_start_time"`
	MaintenanceDurationHours uint8    `json:"maintenance_duration_hours"`
	EmergencyPause           bool     `json:"emergency_pause"`
}

type PauseState string

const (
	PauseStateActive      PauseState = "active"
	PauseStateMaintenance PauseState = "maintenance_paused"
	PauseStateEmergency   PauseState = "emergency_paused"
)

type PauseStatus struct {
	State            PauseState `json:"state"`
	EmergencyPause   bool       `json:"emergency_pause"`
	MaintenancePause bool       `json:"maintenance_pause"`
	RemainingSeconds int64      `json:"remaining_seconds"`
	RemainingHours   int64      `json:"remaining_hours"`
	ResumeTime       string     `json:"resume_time"`
	Message          string     `json:"message"`
}
