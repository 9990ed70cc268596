package components

// PanicHandlerFunc is deferred by every component goroutine.
type PanicHandlerFunc func()

type Action uint32

const (
	Shutdown Action = iota + 1
	Pause
	Resume
)

// ControlAction asks a running component to change state. The component
// replies on ResponseChan once the action is complete.
type ControlAction struct {
	Action       Action
	ResponseChan chan error
}
