package transform

import (
	"github.com/imfpipe/imfpipe/components"
	"github.com/imfpipe/imfpipe/rdbms/shared"
	"github.com/imfpipe/imfpipe/stats"
	"github.com/imfpipe/imfpipe/stream"
)

// StatsManager abstracts stats capture for transform group steps.
type StatsManager interface {
	StartDumping()
	StopDumping()
	AddStepWatcher(stepName string) *stats.StepWatcher
}

// TransformManager can spawn child managers of type StepGroupManager
// used to track individual transform step groups.
type TransformManager interface {
	getTransformGuid() string
	newStepGroupManager(transformGroupName string) StepGroupManager
	deleteStepGroupManager(stepGroupName string)
	getDBConnector(name string) shared.Connector
	getTransformStepGroup(name string) StepGroup
	getStepCanonicalName(transformGroupName string, stepName string) string
	shutdown()
}

// StepGroupManager used to track individual transform step groups.
type StepGroupManager interface {
	getGlobalTransformManager() TransformManager
	getStepGroupName() string
	getStepCanonicalName(stepName string) string
	getComponentWaiter(stepName string) components.ComponentWaiter
	getStepOutputChan(name string) chan stream.Record
	setStepOutputChan(stepName string, c chan stream.Record)
	setStepControlChan(stepName string, c chan components.ControlAction)
	consumeStep(stepName string)
	consumeUnusedOutputs()
	waitForCompletion()
	shutdown()
}
