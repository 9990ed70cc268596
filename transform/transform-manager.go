package transform

import (
	"fmt"
	"sync"

	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms"
	"github.com/imfpipe/imfpipe/rdbms/shared"
)

// Transform is the global manager of the step groups spawned by a pipe.
type Transform struct {
	log             logger.Logger
	transGuid       string
	trans           *TransformDefinition
	mapDBConnectors map[string]shared.Connector
	mapStepGroups   stepGroups // child step group managers created via newStepGroupManager().
}

// stepGroups wraps map[string]StepGroupManager with locking.
type stepGroups struct {
	sync.RWMutex
	internal map[string]StepGroupManager
}

func (t *stepGroups) Load(key string) (retval StepGroupManager, ok bool) {
	t.RLock()
	defer t.RUnlock()
	retval = t.internal[key]
	return
}

func (t *stepGroups) Store(key string, value StepGroupManager) {
	t.Lock()
	defer t.Unlock()
	t.internal[key] = value
}

func (t *stepGroups) Delete(key string) {
	t.Lock()
	defer t.Unlock()
	delete(t.internal, key)
}

// NewTransformManager sets up a new top-level transform manager.
func NewTransformManager(log logger.Logger, t *TransformDefinition, transformGuid string) *Transform {
	return &Transform{
		log:       log,
		trans:     t,
		transGuid: transformGuid,
		// DB connections are requested in series by the launcher funcs so a
		// plain map will do.
		mapDBConnectors: make(map[string]shared.Connector),
		mapStepGroups:   stepGroups{internal: make(map[string]StepGroupManager)},
	}
}

func (tm *Transform) getTransformGuid() string {
	return tm.transGuid
}

// newStepGroupManager returns a new child StepGroupManager. Storing a new
// manager under an existing name makes the old one obsolete.
func (tm *Transform) newStepGroupManager(stepGroupName string) StepGroupManager {
	sg := NewStepGroupManager(tm.log, tm, stepGroupName)
	tm.mapStepGroups.Store(stepGroupName, sg)
	return sg
}

func (tm *Transform) deleteStepGroupManager(stepGroupName string) {
	tm.mapStepGroups.Delete(stepGroupName)
}

// getDBConnector opens the named connection using details in the pipe
// definition. Connections are opened lazily and cached for reuse by later
// steps.
func (tm *Transform) getDBConnector(name string) shared.Connector {
	if db := tm.mapDBConnectors[name]; db != nil {
		return db
	}
	db, err := rdbms.OpenDbConnection(tm.log, tm.trans.Connections[name])
	if err != nil {
		tm.log.Panic(err)
	}
	tm.mapDBConnectors[name] = db
	return db
}

func (tm *Transform) getTransformStepGroup(name string) StepGroup {
	return tm.trans.StepGroups[name]
}

// getStepCanonicalName renders "group.step (Type)" for logs and status maps.
func (tm *Transform) getStepCanonicalName(transformGroupName string, stepName string) string {
	return fmt.Sprintf("%v.%v (%v)",
		transformGroupName,
		stepName,
		tm.trans.StepGroups[transformGroupName].Steps[stepName].Type,
	)
}

// waitForCompletion blocks until all child step groups complete.
func (tm *Transform) waitForCompletion() {
	var wg sync.WaitGroup
	tm.mapStepGroups.RLock()
	for _, sg := range tm.mapStepGroups.internal {
		tm.log.Debug("Waiting for transform step group ", sg.getStepGroupName())
		wg.Add(1)
		go func(s StepGroupManager) {
			defer wg.Done()
			s.waitForCompletion()
		}(sg)
	}
	tm.mapStepGroups.RUnlock()
	wg.Wait()
}

func (tm *Transform) shutdown() {
	tm.mapStepGroups.Lock() // stop anyone else adding new step groups.
	defer tm.mapStepGroups.Unlock()
	for _, sg := range tm.mapStepGroups.internal {
		sg.shutdown()
	}
}
