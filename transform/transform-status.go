package transform

import (
	"encoding/json"
	"fmt"
	"time"
)

type Status uint32

const (
	StatusMissing         = 0
	StatusStarting Status = iota + 1
	StatusRunning
	StatusComplete
	StatusCompleteWithError
	StatusShutdown
)

var statusText = map[Status]string{
	StatusMissing:           "",
	StatusStarting:          "starting",
	StatusRunning:           "running",
	StatusComplete:          "complete",
	StatusCompleteWithError: "complete with error",
	StatusShutdown:          "shutdown by user",
}

func (s Status) MarshalJSON() ([]byte, error) {
	txt, ok := statusText[s]
	if !ok {
		return nil, fmt.Errorf("unhandled Status value %v in custom MarshalJSON() conversion", s)
	}
	return json.Marshal(txt)
}

type TransformStatus struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    Status    `json:"pipeStatus"`
	Error     string    `json:"error"`
}

func (t *TransformStatus) TransformIsFinished() bool {
	return t.Status != StatusStarting && t.Status != StatusRunning
}
