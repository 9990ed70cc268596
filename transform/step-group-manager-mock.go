package transform

import (
	"github.com/imfpipe/imfpipe/components"
	"github.com/imfpipe/imfpipe/stream"
)

// MockStepGroupManager is a no-op StepGroupManager that reports calls to
// consumeUnusedOutputs on responseChan.
type MockStepGroupManager struct {
	responseChan chan string
}

func newMockStepGroupManager(responseChan chan string) *MockStepGroupManager {
	return &MockStepGroupManager{responseChan: responseChan}
}

func (s *MockStepGroupManager) getGlobalTransformManager() TransformManager {
	return &MockTransformManager{}
}

func (s *MockStepGroupManager) getStepGroupName() string {
	return "stepGroupName"
}

func (s *MockStepGroupManager) getStepCanonicalName(stepName string) string {
	return stepName
}

func (s *MockStepGroupManager) getComponentWaiter(stepName string) components.ComponentWaiter {
	return &components.MockComponentWaiter{}
}

func (s *MockStepGroupManager) getStepOutputChan(name string) chan stream.Record {
	return make(chan stream.Record)
}

func (s *MockStepGroupManager) setStepOutputChan(stepName string, c chan stream.Record)        {}
func (s *MockStepGroupManager) setStepControlChan(stepName string, c chan components.ControlAction) {
}
func (s *MockStepGroupManager) consumeStep(stepName string) {}
func (s *MockStepGroupManager) waitForCompletion()          {}
func (s *MockStepGroupManager) shutdown()                   {}

func (s *MockStepGroupManager) consumeUnusedOutputs() {
	s.responseChan <- "consumeUnusedOutputs"
}
