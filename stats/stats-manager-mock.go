package stats

// MockStatsManager satisfies the stats manager interface without collecting
// anything.
type MockStatsManager struct{}

func NewMockStatsManager() *MockStatsManager {
	return &MockStatsManager{}
}

func (s *MockStatsManager) StartDumping() {}
func (s *MockStatsManager) StopDumping()  {}

func (s *MockStatsManager) AddStepWatcher(stepName string) *StepWatcher {
	return nil
}
