package transform

import (
	"time"

	"github.com/imfpipe/imfpipe/components"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stream"
)

// stepGroup tracks the steps in a transform group. It satisfies
// StepGroupManager.
type stepGroup struct {
	log                 logger.Logger
	globalTransformer   TransformManager
	transformGroupName  string
	mapOutputChans      map[string]chan stream.Record            // steps' output channels.
	mapControlChans     map[string]chan components.ControlAction // steps' control channels.
	mapControlChansAuto map[string]chan components.ControlAction // control channels of the auto created consumers, see consumeUnusedOutputs().
	mapConsumerCounts   map[string]int                           // steps' consumer counts.
	waiter              groupWaiter                              // a smart wait group for this group of steps.
}

// NewStepGroupManager constructs the manager for one named transform group
// belonging to the parent TransformManager g.
func NewStepGroupManager(log logger.Logger, g TransformManager, transformGroupName string) *stepGroup {
	return &stepGroup{
		log:                 log,
		globalTransformer:   g,
		transformGroupName:  transformGroupName,
		mapOutputChans:      make(map[string]chan stream.Record),
		mapConsumerCounts:   make(map[string]int),
		mapControlChans:     make(map[string]chan components.ControlAction),
		mapControlChansAuto: make(map[string]chan components.ControlAction),
		waiter:              groupWaiter{internalMapStepStatuses: make(map[string]StepStatus)},
	}
}

// getStepOutputChan returns the outputChan of a registered step by name, or
// logs fatal when the sequence references an unknown step.
func (sg *stepGroup) getStepOutputChan(name string) chan stream.Record {
	retval, ok := sg.mapOutputChans[name]
	if !ok {
		sg.log.Fatal("error using output channel of step \"", name, "\", please check the step sequence")
	}
	return retval
}

// setStepOutputChan captures channel c against the step name with zero
// consumers recorded so far.
func (sg *stepGroup) setStepOutputChan(stepName string, c chan stream.Record) {
	sg.mapConsumerCounts[stepName] = 0
	sg.mapOutputChans[stepName] = c
}

func (sg *stepGroup) setStepControlChan(stepName string, c chan components.ControlAction) {
	sg.mapControlChans[stepName] = c
}

// consumeStep records that something downstream reads the named step's output
// channel.
func (sg *stepGroup) consumeStep(stepName string) {
	sg.mapConsumerCounts[stepName]++
}

// getGlobalTransformManager returns the parent TransformManager this group
// was created from.
func (sg *stepGroup) getGlobalTransformManager() TransformManager {
	return sg.globalTransformer
}

func (sg *stepGroup) getStepCanonicalName(stepName string) string {
	return sg.getGlobalTransformManager().getStepCanonicalName(sg.transformGroupName, stepName)
}

func (sg *stepGroup) getComponentWaiter(stepName string) components.ComponentWaiter {
	// The returned ComponentWaiter remembers the stepName.
	return sg.waiter.newStepComponentWaiter(stepName)
}

func (sg *stepGroup) getStepGroupName() string {
	return sg.transformGroupName
}

// consumeUnusedOutputs launches a draining goroutine per output channel with
// no registered consumer so prior steps don't block when nothing downstream
// reads them.
func (sg *stepGroup) consumeUnusedOutputs() {
	drain := func(stepNameToConsume string, c chan stream.Record, controlChan chan components.ControlAction, waiter components.ComponentWaiter) {
		sg.log.Debug("Discarding unused output of step ", stepNameToConsume, " until completion")
		defer waiter.Done()
		for {
			select {
			case _, ok := <-c:
				if !ok {
					sg.log.Debug("Auto consumer of unused output for step ", stepNameToConsume, " completed")
					return
				}
				// Discard the record.
			case controlAction := <-controlChan:
				controlAction.ResponseChan <- nil
				sg.log.Debug("Auto consumer of unused output for step ", stepNameToConsume, " was shutdown")
				return
			}
		}
	}
	for stepName, numConsumers := range sg.mapConsumerCounts {
		if numConsumers > 0 {
			sg.log.Debug(sg.getStepCanonicalName(stepName), " should already have a consumer.")
			continue
		}
		stepNameToConsume := sg.getStepCanonicalName(stepName)
		stepNameAuto := stepNameToConsume + " consumer"
		// The auto-consumer registers its own stepStatus so shutdown() can see
		// it, and joins the wait group so final output steps get to process
		// all their rows.
		stepWaiter := sg.waiter.newStepComponentWaiter(stepNameAuto)
		stepWaiter.Add()
		controlChan := make(chan components.ControlAction, 1)
		sg.mapControlChansAuto[stepNameAuto] = controlChan
		go drain(stepNameToConsume, sg.mapOutputChans[stepName], controlChan, stepWaiter)
	}
}

// waitForCompletion blocks until all components in this group say they're
// done, then deregisters the group from the parent manager.
func (sg *stepGroup) waitForCompletion() {
	sg.log.Info("Waiting for transform step group ", sg.transformGroupName, " to complete...")
	sg.waiter.Wait()
	sg.log.Info("Transform step group ", sg.transformGroupName, " complete")
	sg.getGlobalTransformManager().deleteStepGroupManager(sg.transformGroupName)
}

func (sg *stepGroup) shutdownChannelsInMap(m map[string]chan components.ControlAction) {
	for stepName, c := range m {
		s, ok := sg.waiter.LoadStatus(stepName)
		if !ok {
			sg.log.Panic("Unable to load status of step ", stepName, ". Ensure all launcher functions for components use the same name to get/set their ComponentWaiter and control channel.")
		}
		if s == StepStatusDone {
			sg.log.Debug("Shutdown skipped for complete step ", sg.getStepCanonicalName(stepName))
			continue
		}
		sg.log.Debug("Shutting down ", sg.getStepCanonicalName(stepName))
		a := components.ControlAction{Action: components.Shutdown, ResponseChan: make(chan error, 1)}
		c <- a
		select {
		case <-a.ResponseChan: // discard the error for now.
		case <-time.After(time.Duration(3) * time.Second):
			sg.log.Panic("component ", stepName, " failed to shutdown in a timely manner")
		}
	}
}

func (sg *stepGroup) shutdown() {
	sg.shutdownChannelsInMap(sg.mapControlChans)     // all real steps.
	sg.shutdownChannelsInMap(sg.mapControlChansAuto) // the auto-created consumers of unused outputs.
}
