package transform

import (
	"sync/atomic"
	"testing"
	"time"
)

// TestCloseChanStatusAndShutdown asserts that CloseChannels really closes
// both channels and that the closed state is observable afterwards.
func TestCloseChanStatusAndShutdown(t *testing.T) {
	chanStatus := make(chan TransformStatus, 1)
	chanShutdown := make(chan error, 1)
	chanResult := make(chan string, 2)
	tc := TransformCloser{chanStatus: chanStatus, chanShutdown: chanShutdown}
	tc.CloseChannels(nil)
	// Sending on a closed channel panics; use that to prove each channel is
	// closed by recovering and reporting which one fired.
	recoverFunc := func(message string) {
		if r := recover(); r != nil {
			chanResult <- message
		}
	}
	expectedMessages := [...]string{"chanStatus", "chanShutdown"}
	go func() {
		defer recoverFunc(expectedMessages[0])
		chanStatus <- TransformStatus{}
	}()
	go func() {
		defer recoverFunc(expectedMessages[1])
		chanShutdown <- nil
	}()
	var results []string
	timeout := time.After(3 * time.Second)
collect:
	for len(results) < len(expectedMessages) {
		select {
		case <-timeout:
			break collect
		case result := <-chanResult:
			results = append(results, result)
		}
	}
	if len(results) != len(expectedMessages) {
		t.Fatalf("expected %v channels to be closed, but got responses from %v", len(expectedMessages), len(results))
	}
	for _, val := range results {
		if val != expectedMessages[0] && val != expectedMessages[1] {
			t.Fatalf("expected channels to be closed with values in %v, but got values in %v", expectedMessages, results)
		}
	}
	if tc.ChannelsAreOpen() {
		t.Fatal("channels are expected to be closed, but they were found to be open")
	}
	if atomic.LoadInt32(&tc.flagClosedChanStatusAndShutdown) == 0 {
		t.Fatal("channels are closed but the flag is still 0")
	}
}
