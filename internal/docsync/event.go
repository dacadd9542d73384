package docsync

// EventKind classifies a filesystem change on a watched path.
type EventKind uint8

const (
	EventCreated EventKind = iota
	EventMovedIn
	EventModified
	EventRemoved
)

var eventKindNames = []string{
	"created",
	"moved-in",
	"modified",
	"removed",
}

func (k EventKind) String() string {
	return eventKindNames[k]
}

// Event is a single change notification for a file under the watched
// root.
type Event struct {
	Kind EventKind
	Path string
}
