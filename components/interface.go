package components

// ComponentWaiter exposes the Add/Done half of a wait group so components can
// signal their lifetime without holding the whole sync.WaitGroup.
type ComponentWaiter interface {
	Add()
	Done()
}
