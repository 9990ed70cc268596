package components

// MockComponentWaiter counts Add/Done calls in place of a real wait group.
type MockComponentWaiter struct {
	count int
}

func (cw *MockComponentWaiter) Add()  { cw.count++ }
func (cw *MockComponentWaiter) Done() { cw.count-- }
