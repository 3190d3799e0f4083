package service

// Admin feed event names
const (
	EventResultStarted   = "result.started"
	EventResultCompleted = "result.completed"
	EventResultDeleted   = "result.deleted"
)

// Broadcaster publishes lifecycle events to the admin live feed (avoids import cycle)
type Broadcaster interface {
	Publish(event string, payload interface{})
}
