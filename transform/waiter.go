package transform

import (
	"sync"
)

// TODO: combine StepStatus and Status (at the transform level) if possible.
type StepStatus uint32

const (
	StepStatusStarting StepStatus = iota + 1
	StepStatusRunning
	StepStatusDone
)

// groupWaiter wraps a sync.WaitGroup with a per-step status map so shutdown
// can skip steps that already finished. It implements ComponentWaiter for the
// nameless auto-consumers; named steps go through a stepWaiter.
type groupWaiter struct {
	wg                      sync.WaitGroup
	internalMapStepStatuses map[string]StepStatus
	mu                      sync.RWMutex
}

// newStepComponentWaiter registers stepName as starting and returns a
// stepWaiter bound to it.
func (gw *groupWaiter) newStepComponentWaiter(stepName string) *stepWaiter {
	gw.StoreStatus(stepName, StepStatusStarting)
	return &stepWaiter{stepName: stepName, gw: gw}
}

func (gw *groupWaiter) StoreStatus(stepName string, status StepStatus) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	gw.internalMapStepStatuses[stepName] = status
}

func (gw *groupWaiter) LoadStatus(stepName string) (retval StepStatus, ok bool) {
	gw.mu.RLock()
	defer gw.mu.RUnlock()
	retval, ok = gw.internalMapStepStatuses[stepName]
	return
}

// Add increments the wait group without touching step statuses; only for
// steps that have no name, i.e. the consumers of unused outputs.
func (gw *groupWaiter) Add() {
	gw.wg.Add(1)
}

// Done decrements the wait group without touching step statuses; see Add.
func (gw *groupWaiter) Done() {
	gw.wg.Done()
}

func (gw *groupWaiter) Wait() {
	gw.wg.Wait()
}

// stepWaiter updates the parent groupWaiter's wait group and records the
// step's status as it starts and finishes. It implements ComponentWaiter.
type stepWaiter struct {
	gw       *groupWaiter
	stepName string
}

func (s *stepWaiter) Add() {
	s.gw.wg.Add(1)
	s.gw.StoreStatus(s.stepName, StepStatusRunning)
}

func (s *stepWaiter) Done() {
	s.gw.wg.Done()
	s.gw.StoreStatus(s.stepName, StepStatusDone)
}
