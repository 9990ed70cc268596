package components

import (
	"github.com/imfpipe/imfpipe/stream"
)

// safeSend sends rec downstream while staying responsive to control requests.
// A false return means a control action arrived instead and the caller should
// stop.
func safeSend(rec stream.Record,
	outputChan chan stream.Record,
	controlChan chan ControlAction,
	controlFunc func(c ControlAction),
) (recordSentOK bool) {
	select {
	case outputChan <- rec:
		return true
	case c := <-controlChan:
		controlFunc(c)
		return false
	}
}

func sendNilControlResponse(c ControlAction) {
	c.ResponseChan <- nil
}
