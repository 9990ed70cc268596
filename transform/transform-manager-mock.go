package transform

import (
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms/shared"
)

type MockTransformManager struct {
	log logger.Logger
	db  shared.Connector
	c   chan string
}

func (tm *MockTransformManager) getTransformGuid() string {
	return "mockTransformGuid-123456789"
}

func (tm *MockTransformManager) newStepGroupManager(transformGroupName string) StepGroupManager {
	return &MockStepGroupManager{}
}

func (tm *MockTransformManager) deleteStepGroupManager(stepGroupName string) {
	return
}

func (tm *MockTransformManager) getDBConnector(name string) shared.Connector {
	tm.db, tm.c = shared.NewMockConnectionWithMockTx(tm.log, "mockDbType")
	return tm.db
}

func (tm *MockTransformManager) getTransformStepGroup(name string) StepGroup {
	return StepGroup{}
}

func (tm *MockTransformManager) getStepCanonicalName(transformGroupName string, stepName string) string {
	return "canonical step name"
}

func (tm *MockTransformManager) shutdown() {
	return
}
