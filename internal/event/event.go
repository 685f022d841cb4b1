package event

type Type string

const (
	TypeTrashDeleted  Type = "trash.deleted"
	TypeTrashRestored Type = "trash.restored"
	TypeTrashPurged   Type = "trash.purged"
	TypeTrashSwept    Type = "trash.swept"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
	ActorID   string      `json:"actor_id,omitempty"` // Who triggered the event
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
