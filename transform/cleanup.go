package transform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/imfpipe/imfpipe/components"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// CleanupHandlerDefault waits for CTRL-C or SIGTERM and sends shutdown
// requests to any steps that registered control channels.
func CleanupHandlerDefault(log logger.Logger, t TransformManager, s StatsManager, cancelFunc context.CancelFunc) {
	guid := t.getTransformGuid()
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	x := <-c
	fmt.Println() // newline after ^C for a clean CLI look.
	log.Info("Caught ", x.String())
	log.Info("Shutting down transform ", guid, "...")
	cancelFunc()    // quit the goroutine launched in LaunchTransform().
	t.shutdown()    // signal components to shutdown at the global level.
	s.StopDumping()
	log.Info("Shutdown complete for transform ", guid)
}

// GetCleanupHandlerWithChannelsFunc returns a cleanup handler that reacts to
// both OS interrupts and a stop request on the TransformCloser's shutdown
// channel.
func GetCleanupHandlerWithChannelsFunc(log logger.Logger, transformGuid string, tc *TransformCloser) CleanupHandlerFunc {
	return func(log logger.Logger, tm TransformManager, s StatsManager, cancelFunc context.CancelFunc) {
		var e error
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		select {
		case x := <-c:
			fmt.Println() // newline after ^C for a clean CLI look.
			log.Info("Caught ", x.String())
		case e = <-tc.chanShutdown: // a stop request, or channel closure on completion.
			if e != nil {
				log.Error(e)
			}
		}
		// TODO: issue: if a user sends ctrl-c before launch is complete then this shutdown call below will only cause those components that have launched so far to shutdown
		//   so we get zombie components living on.
		if tc.ChannelsAreOpen() { // the transform is not already complete.
			log.Info("Shutting down transform ", tm.getTransformGuid(), "...")
			cancelFunc()    // quit the looping transform step group.
			tm.shutdown()   // shutdown all step groups.
			s.StopDumping()
			tc.CloseChannels(&TransformStatus{Status: StatusShutdown})
			log.Info("Shutdown complete for transform ", transformGuid)
		}
		if e != nil && isatty.IsTerminal(os.Stdout.Fd()) {
			// Interactive CLI run; when serving over HTTP the error went to
			// the status channel instead and we must not exit the process.
			log.Fatal(e)
		}
	}
}

// GetPanicHandlerWithChannelsFunc creates a deferrable recovery func that
// forwards the panic message to the TransformCloser's status channel and
// requests shutdown exactly once.
func GetPanicHandlerWithChannelsFunc(tc *TransformCloser) components.PanicHandlerFunc {
	once := sync.Once{}
	return func() {
		r := recover()
		if r == nil {
			return
		}
		// logger.Panic() panics with a *logrus.Entry; otherwise expect a
		// plain string.
		var msg string
		if entry, ok := r.(*logrus.Entry); ok {
			msg = entry.Message
		} else {
			var ok bool
			msg, ok = r.(string)
			if !ok {
				panic("unexpected type found during recovery")
			}
		}
		tc.chanStatus <- TransformStatus{Status: StatusCompleteWithError, Error: msg}
		var err error
		if msg != "" {
			err = errors.New(msg)
		}
		once.Do(func() { tc.chanShutdown <- err })
	}
}
