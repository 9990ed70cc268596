package transform

import (
	"sync"
	"time"

	"github.com/imfpipe/imfpipe/stats"
)

type TransformInfo struct {
	Transform TransformDefinition // TODO: implement transform "name" in TransformInfo{} and TransformDefinition{}
	ChanStop  chan error
	Status    TransformStatus `json:"transformStatus"`
	Stats     stats.StatsFetcher
}

// SafeMapTransformInfo wraps map[string]TransformInfo with locking. The web
// server reads it from handler goroutines while launches write to it.
type SafeMapTransformInfo struct {
	sync.RWMutex
	Internal map[string]TransformInfo
}

func NewSafeMapTransformInfo() *SafeMapTransformInfo {
	return &SafeMapTransformInfo{Internal: make(map[string]TransformInfo)}
}

func (t *SafeMapTransformInfo) Load(key string) (ti TransformInfo, ok bool) {
	t.RLock()
	defer t.RUnlock()
	ti, ok = t.Internal[key]
	return
}

func (t *SafeMapTransformInfo) Store(key string, value TransformInfo) {
	t.Lock()
	defer t.Unlock()
	t.Internal[key] = value
}

func (t *SafeMapTransformInfo) Delete(key string) {
	t.Lock()
	defer t.Unlock()
	delete(t.Internal, key)
}

// ConsumeTransformStatusChanges updates the stored TransformInfo for
// transformGuid with each status received, stamping start and end times,
// until chanStatus is closed.
func (t *SafeMapTransformInfo) ConsumeTransformStatusChanges(transformGuid string, chanStatus chan TransformStatus) {
	for status := range chanStatus {
		ti, _ := t.Load(transformGuid)
		switch status.Status {
		case StatusRunning:
			ti.Status.Status = status.Status
			ti.Status.StartTime = time.Now()
		case StatusComplete, StatusShutdown:
			ti.Status.Status = status.Status
			ti.Status.EndTime = time.Now()
		case StatusCompleteWithError:
			ti.Status.Status = status.Status
			ti.Status.EndTime = time.Now()
			ti.Status.Error = status.Error
		}
		t.Store(transformGuid, ti)
	}
}
