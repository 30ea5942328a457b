package events

const (
	TopicNotificationSent   = "notification.sent.v1"
	TopicNotificationFailed = "notification.failed.v1"
)

// NotificationResult reports the outcome of delivering one due reminder.
type NotificationResult struct {
	AppointmentID string `json:"appointment_id"`
	Channel       string `json:"channel"`
	Recipient     string `json:"recipient"`
	RemindAt      string `json:"remind_at"`
	Provider      string `json:"provider"`
	Error         string `json:"error,omitempty"`
}
