package transform

import (
	"context"
	"testing"
	"time"

	"github.com/imfpipe/imfpipe/components"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stats"
	"github.com/imfpipe/imfpipe/stream"
	"github.com/rs/xid"
)

// countingWorkerFunc returns a mock component worker that counts executions on
// the supplied channel.
func countingWorkerFunc(c chan struct{}) componentFactory {
	return func(cfg interface{}) (outputChan chan stream.Record, controlChan chan components.ControlAction) {
		c <- struct{}{}
		outputChan = make(chan stream.Record, 1)
		controlChan = make(chan components.ControlAction, 1)
		return outputChan, controlChan
	}
}

// countingLauncherFunc returns a mock launcher that counts executions on the
// supplied channel.
func countingLauncherFunc(c chan struct{}) func(
	log logger.Logger,
	stepName string,
	stepCanonicalName string,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
	componentFunc componentFactory) {
	return func(
		log logger.Logger,
		stepName string,
		stepCanonicalName string,
		sg *StepGroup,
		sgm StepGroupManager,
		stats StatsManager,
		panicHandlerFn components.PanicHandlerFunc,
		componentFunc componentFactory) {
		c <- struct{}{}
	}
}

func mockPanicHandler() {}

func countingStepGroupLauncher(c chan struct{}) stepGroupLaunchFunc {
	return func(log logger.Logger,
		sg *StepGroup,
		sgm StepGroupManager,
		stats StatsManager,
		funcs MapComponentFuncs,
		panicHandlerFn components.PanicHandlerFunc) {
		c <- struct{}{}
	}
}

// newIndicatorFetchTransform builds a minimal definition holding one indicator fetch
// step and no database connections.
func newIndicatorFetchTransform() *TransformDefinition {
	return &TransformDefinition{
		SchemaVersion: 1,
		Sequence:      []string{"stepGroup1"},
		Description:   "dummy description",
		Connections:   nil,
		StepGroups: map[string]StepGroup{
			"stepGroup1": {
				Type:       StepGroupSequential,
				Sequence:   []string{"step1"},
				RepeatMeta: RepeatMetadata{SleepSeconds: 0},
				Steps: map[string]Step{
					"step1": {
						Type: "IndicatorInput",
						Data: map[string]string{
							"indicatorCodesCSV": "NGDP_RPCH",
						},
					},
				},
			},
		},
	}
}

// TestStartStepGroup asserts that each registered component's launcher runs
// exactly once and that the unused outputs get consumed afterwards.
func TestStartStepGroup(t *testing.T) {
	launches := make(chan struct{}, 3)
	mgrCalls := make(chan string, 10)
	log := logger.NewLogger("test", "info", true)
	registrations := MapComponentFuncs{
		"W1": ComponentRegistration{countingWorkerFunc(launches), countingLauncherFunc(launches)},
		"W2": ComponentRegistration{countingWorkerFunc(launches), countingLauncherFunc(launches)},
		"W3": ComponentRegistration{countingWorkerFunc(launches), countingLauncherFunc(launches)},
	}
	steps := map[string]Step{
		"fetch": {Type: "W1", Data: map[string]string{"indicator": "NGDP_RPCH"}},
		"map": {Type: "W2", Data: map[string]string{"indicator": "NGDP_RPCH"}},
		"write": {Type: "W3", Data: map[string]string{"indicator": "NGDP_RPCH"}},
	}
	sg := &StepGroup{
		Type:     "single",
		Steps:    steps,
		Sequence: []string{"fetch", "map", "write"}}
	StartStepGroup(log, sg, newMockStepGroupManager(mgrCalls), stats.NewMockStatsManager(), registrations, mockPanicHandler)
	close(launches)
	close(mgrCalls)
	launched := 0
	for range launches {
		launched++
	}
	if launched != len(steps) {
		t.Fatalf("component launchers to be called: expected %v; got %v", len(steps), launched)
	}
	calls := make(map[string]bool)
	for str := range mgrCalls {
		calls[str] = true
	}
	if !calls["consumeUnusedOutputs"] {
		t.Fatal("consumeUnusedOutputs was not called by StartStepGroup()")
	}
}

func TestSleepUntilTimeout(t *testing.T) {
	log := logger.NewLogger("test", "info", true)
	numSecondsToSleep := 10
	toleranceSeconds := 1
	lastStartTime := time.Now()
	// Asking immediately returns close to the full interval.
	expected := time.Duration(numSecondsToSleep-toleranceSeconds) * time.Second
	got := getSleepDuration(log, lastStartTime, numSecondsToSleep).Truncate(time.Second)
	if got != expected {
		t.Fatalf("Time duration out of range: expected %v; got %v.", expected, got)
	}
	// After a delay, only the remainder of the interval should be returned.
	lastStartTime = time.Now()
	delay := 2
	<-time.After(time.Second * time.Duration(delay))
	got = getSleepDuration(log, lastStartTime, numSecondsToSleep).Truncate(time.Second)
	expected = time.Duration(numSecondsToSleep-delay-toleranceSeconds) * time.Second
	if got != expected {
		t.Fatalf("Time duration out of range: expected %v; got %v.", expected, got)
	}
	// An overdue interval returns zero, never a negative duration.
	if got := getSleepDuration(log, lastStartTime, 0); got != 0 {
		t.Fatalf("Overdue timeout duration failure: expected 0; got %v.", got)
	}
}

func TestLaunchTransform(t *testing.T) {
	log := logger.NewLogger("test", "info", true)
	trans := newIndicatorFetchTransform()
	s := stats.NewMockStatsManager()
	cleanupHandlerFn := CleanupHandlerDefault
	panicHandlerFn := func() {}
	// Count the calls LaunchTransform() makes to our step group launcher.
	c := make(chan struct{}, 2)
	launcherFn := countingStepGroupLauncher(c)
	guid := xid.New().String()
	LaunchTransform(log, trans, guid, launcherFn, s, cleanupHandlerFn, panicHandlerFn)
	close(c)
	got := 0
	for range c {
		got++
	}
	if got != 1 { // a "once" transform runs its step group a single time.
		t.Fatalf("stepGroupLauncherFn was not called the expected number of times: expected 1; got %v", got)
	}
	// A repeating step group must run more than once.
	m, ok := trans.StepGroups["stepGroup1"]
	if !ok {
		t.Fatal("stepGroup not found using hard coded name!")
	}
	m.Type = StepGroupRepeating
	trans.StepGroups["stepGroup1"] = m
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*50)
	defer cancel()
	// Remake the launcher func since the counting channel above is closed.
	c = make(chan struct{}, 2)
	quit := make(chan struct{}, 1)
	launcherFn = countingStepGroupLauncher(c)
	go LaunchTransform(log, trans, guid, launcherFn, s, cleanupHandlerFn, panicHandlerFn)
	go func() {
		count := 0
		for range c {
			count++
			if count >= 2 {
				quit <- struct{}{}
				break
			}
		}
	}()
	select {
	case <-quit:
		log.Info("LaunchTransform executed the repeating step group OK.")
	case <-ctx.Done():
		t.Fatal("Timeout while waiting for test/dummy transform to repeat itself.")
	}
}

func TestLaunchTransformWithControlChannels(t *testing.T) {
	log := logger.NewLogger("test", "info", true)
	trans := newIndicatorFetchTransform()
	s := stats.NewMockStatsManager()
	chanStatus := make(chan TransformStatus, 2)
	chanShutdown := make(chan error, 1)
	tc := NewTransformCloser(chanStatus, chanShutdown)
	guid := xid.New().String()
	cleanupHandlerFn := GetCleanupHandlerWithChannelsFunc(log, guid, tc)
	panicHandlerFn := func() {}
	launcherRan := make(chan string, 1)
	launcherFn := func(log logger.Logger,
		transformDefn *TransformDefinition,
		transformGuid string,
		stepGroupLaunchFn stepGroupLaunchFunc,
		stats StatsManager,
		cleanupHandlerFn CleanupHandlerFunc,
		panicHandlerFn components.PanicHandlerFunc,
	) {
		launcherRan <- "test"
	}
	LaunchTransformWithControlChannels(log, trans, guid, s, tc, cleanupHandlerFn, panicHandlerFn, launcherFn)
	// The caller should see StatusRunning first.
	var resp TransformStatus
	select {
	case resp = <-chanStatus:
	case <-time.After(3 * time.Second):
	}
	if resp.Status != StatusRunning {
		t.Fatalf("expected status running (%v) on chanStatus, but got %v", StatusRunning, resp.Status)
	}
	// The supplied launcher func must have been invoked.
	var x string
	select {
	case x = <-launcherRan:
	case <-time.After(3 * time.Second):
	}
	if x != "test" {
		t.Fatalf("expected launcherFn to be called, but we timed out")
	}
	// Then StatusComplete, followed by the status channel closing.
	exit := false
	closed := false
	for {
		select {
		case resp, ok := <-chanStatus:
			if !ok {
				exit = true
				closed = true
			} else if resp.Status != StatusComplete {
				t.Fatalf("expected status complete (%v) on chanStatus, but got %v", StatusComplete, resp.Status)
			}
		case <-time.After(3 * time.Second):
			exit = true
		}
		if exit {
			break
		}
	}
	if !closed {
		t.Fatal("expected chanStatus to be closed but we timed out instead.")
	}
	// Finally the shutdown channel closes too.
	select {
	case <-time.After(3 * time.Second):
	case _, ok := <-chanShutdown:
		if ok {
			t.Fatal("expected chanShutdown to be closed but it was not")
		}
	}
}
