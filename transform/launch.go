package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/imfpipe/imfpipe/components"
	"github.com/imfpipe/imfpipe/helper"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stats"
	"github.com/rs/xid"
)

// LaunchTransformJson unmarshals the supplied pipe definition JSON and launches it.
func LaunchTransformJson(log logger.Logger, ti *SafeMapTransformInfo, transformJson string, blockUntilComplete bool, statsDumpFrequencySeconds int,
) (guid string, err error) {
	t := &TransformDefinition{}
	if err = json.Unmarshal([]byte(transformJson), t); err != nil {
		return
	}
	return LaunchTransformDefinition(log, ti, t, blockUntilComplete, statsDumpFrequencySeconds)
}

// LaunchTransformDefinition validates the supplied TransformDefinition and
// launches it, registering the new transform in ti under a fresh GUID which is
// returned. When blockUntilComplete is false the transform runs in a
// goroutine and this returns immediately.
func LaunchTransformDefinition(log logger.Logger, ti *SafeMapTransformInfo, t *TransformDefinition, blockUntilComplete bool, statsDumpFrequencySeconds int) (guid string, err error) {
	if err = helper.ValidateStructIsPopulated(t); err != nil {
		return
	}
	s := stats.NewTransformStats(log, stats.SetStatsDumpFrequency(statsDumpFrequencySeconds))
	chanStatus := make(chan TransformStatus, 1) // status messages back from the transform.
	chanShutdown := make(chan error, 1)         // lets callers stop the transform.
	tc := NewTransformCloser(chanStatus, chanShutdown)
	guid = xid.New().String()
	ti.Store(
		guid,
		TransformInfo{
			ChanStop:  chanShutdown,
			Stats:     s,
			Transform: *t,
			Status:    TransformStatus{Status: StatusStarting, StartTime: time.Now()},
		})
	// Status changes flow into the stored TransformInfo as they happen.
	go ti.ConsumeTransformStatusChanges(guid, chanStatus)
	log.Info("Launching transform ", guid)
	// The cleanup handler is the thing that causes exit(1) if there's a signal
	// on chanShutdown!
	cleanupHandler := GetCleanupHandlerWithChannelsFunc(log, guid, tc)
	panicHandler := GetPanicHandlerWithChannelsFunc(tc)
	if blockUntilComplete {
		LaunchTransformWithControlChannels(log, t, guid, s, tc, cleanupHandler, panicHandler, LaunchTransform)
	} else {
		go LaunchTransformWithControlChannels(log, t, guid, s, tc, cleanupHandler, panicHandler, LaunchTransform)
	}
	return
}

// LaunchTransformWithControlChannels launches a transform that can be stopped
// by sending to the TransformCloser's shutdown channel. After the transform is
// complete it sends a success/failure status message and closes the channels.
func LaunchTransformWithControlChannels(log logger.Logger,
	transformDefn *TransformDefinition,
	transformGuid string,
	s StatsManager,
	tc *TransformCloser,
	cleanupHandlerFn CleanupHandlerFunc,
	panicHandlerFn components.PanicHandlerFunc,
	launcherFn LaunchTransformFunc,
) {
	defer panicHandlerFn()
	tc.chanStatus <- TransformStatus{Status: StatusRunning}
	// This blocks until the transform steps (their goroutines) complete.
	launcherFn(log, transformDefn, transformGuid, StartStepGroup, s, cleanupHandlerFn, panicHandlerFn)
	tc.CloseChannels(&TransformStatus{Status: StatusComplete})
}

// LaunchTransform starts all step groups found in the TransformDefinition,
// once or repeatedly per the definition's type.
func LaunchTransform(log logger.Logger,
	transformDefn *TransformDefinition,
	transformGuid string,
	stepGroupLaunchFn stepGroupLaunchFunc,
	stats StatsManager,
	cleanupHandlerFn CleanupHandlerFunc,
	panicHandlerFn components.PanicHandlerFunc,
) {
	defer panicHandlerFn()
	// The transform manager opens database connections for all steps to share.
	tm := NewTransformManager(log, transformDefn, transformGuid)
	var wg sync.WaitGroup
	ctx, cancelFunc := context.WithCancel(context.Background())
	go cleanupHandlerFn(log, tm, stats, cancelFunc) // listen for quit signals.
	runTransform := func() {
		stats.StartDumping()
		startStepGroupsOfType(ctx, log, StepGroupBackground, transformDefn, tm, &wg, stepGroupLaunchFn, stats, panicHandlerFn)
		startStepGroupsOfType(ctx, log, StepGroupRepeating, transformDefn, tm, &wg, stepGroupLaunchFn, stats, panicHandlerFn)
		startStepGroupsOfType(ctx, log, StepGroupSequential, transformDefn, tm, &wg, stepGroupLaunchFn, stats, panicHandlerFn)
		wg.Wait()              // repeating step groups only return on cancellation.
		tm.waitForCompletion() // wait for completion at a global level.
		stats.StopDumping()
	}
	if transformDefn.Type != TransformRepeating {
		runTransform()
		return
	}
	iteration := 0
	for {
		iteration++
		log.Info("Repeat launching transform ", transformGuid)
		lastStartTime := time.Now() // iteration start, used to compute the next sleep.
		runTransform()
		log.Info("Repeating transform ", transformGuid, " completed ", iteration, " iteration(s)")
		select {
		case <-ctx.Done():
			return
		case <-time.After(getSleepDuration(log, lastStartTime, transformDefn.RepeatMeta.SleepSeconds)):
		}
	}
}

func startStepGroupsOfType(
	ctx context.Context,
	log logger.Logger,
	stepGroupType string,
	transformDefn *TransformDefinition,
	tm *Transform,
	wg *sync.WaitGroup,
	stepGroupLaunchFn stepGroupLaunchFunc,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
) {
	for _, stepGroupName := range transformDefn.Sequence {
		stepGroupName := stepGroupName
		sg := transformDefn.StepGroups[stepGroupName] // copy; the goroutines below capture it.
		if sg.Type != StepGroupSequential &&
			sg.Type != StepGroupBackground &&
			sg.Type != StepGroupRepeating {
			log.Panic(fmt.Sprintf("unsupported transform step group type %q in step group %q", sg.Type, stepGroupName))
		}
		if sg.Type != stepGroupType { // only launch the requested kind this pass.
			continue
		}
		switch sg.Type {
		case StepGroupRepeating:
			// Keep re-running the step group on an interval until cancelled.
			wg.Add(1)
			go func() {
				defer wg.Done()
				iteration := 0
				for {
					iteration++
					log.Info("Repeat launching transform step group ", stepGroupName)
					repeatSgMgr := tm.newStepGroupManager(stepGroupName) // fresh manager per iteration.
					lastStartTime := time.Now()
					stepGroupLaunchFn(log, &sg, repeatSgMgr, stats, componentFuncs, panicHandlerFn)
					repeatSgMgr.waitForCompletion() // wait for all channels associated with output steps to complete.
					log.Info("Repeating step group ", stepGroupName, " completed ", iteration, " iteration(s)")
					select {
					case <-time.After(getSleepDuration(log, lastStartTime, sg.RepeatMeta.SleepSeconds)):
					case <-ctx.Done():
						return
					}
				}
			}()
		case StepGroupSequential:
			log.Info("Launching transform step group ", stepGroupName)
			sgMgr := tm.newStepGroupManager(stepGroupName)
			stepGroupLaunchFn(log, &sg, sgMgr, stats, componentFuncs, panicHandlerFn)
			sgMgr.waitForCompletion() // block until this sequential step group succeeds.
		case StepGroupBackground:
			log.Info("Launching transform step group ", stepGroupName, " in the background")
			sgMgr := tm.newStepGroupManager(stepGroupName)
			go stepGroupLaunchFn(log, &sg, sgMgr, stats, componentFuncs, panicHandlerFn)
		}
	}
}

// getSleepDuration returns the time remaining until lastStartTime plus the
// sleep interval, or zero when that moment has already passed.
func getSleepDuration(log logger.Logger, lastStartTime time.Time, sleepSeconds int) time.Duration {
	curTime := time.Now()
	nextStartTime := lastStartTime.Add(time.Second * time.Duration(sleepSeconds))
	if curTime.Before(nextStartTime) {
		timeout := nextStartTime.Sub(curTime).Truncate(time.Second)
		log.Info("Sleep interval set to ", sleepSeconds, " seconds. ", timeout, " seconds remaining.")
		return timeout
	}
	overdue := curTime.Sub(nextStartTime).Truncate(time.Second)
	log.Info("Sleep interval set to ", sleepSeconds, " seconds. Next interval overdue by ", overdue)
	return 0
}

// StartStepGroup launches all steps defined in StepGroup sg in sequence
// order. Each step type must name a registered component.
func StartStepGroup(
	log logger.Logger,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	funcs MapComponentFuncs,
	panicHandlerFn components.PanicHandlerFunc) {
	for _, stepName := range sg.Sequence {
		stepType := sg.Steps[stepName].Type
		if stepType == "" {
			log.Panic(fmt.Sprintf("Undefined or missing step %q. Check the step sequence contains valid step names.", stepName))
		}
		stepCanonicalName := sgm.getStepCanonicalName(stepName)
		componentMetadata, ok := funcs[stepType]
		if !ok {
			log.Panic(fmt.Sprintf("Unsupported transformation component %q used by step %q", stepType, stepName))
		}
		log.Info("Executing step ", stepCanonicalName)
		componentMetadata.launcherFunc(log, stepName, stepCanonicalName, sg, sgm, stats, panicHandlerFn, componentMetadata.workerFunc)
	}
	sgm.consumeUnusedOutputs()
}
