package components

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stream"
)

func TestNewStdOutPassThrough(t *testing.T) {
	log := logger.NewLogger("imfpipe", "info", true)

	newInputWithRow := func() chan stream.Record {
		input := make(chan stream.Record, 10)
		row := stream.NewRecord()
		row.SetData("key1", 1)
		row.SetData("key2", "value2")
		input <- row
		return input
	}
	drainAll := func(ch chan stream.Record) []stream.Record {
		results := make([]stream.Record, 0)
		for rec := range ch {
			results = append(results, rec)
		}
		return results
	}
	expectField := func(rec stream.Record, key string, expected string) {
		t.Helper()
		got := rec.GetDataAsStringPreserveTimeZone(log, key)
		if got != expected {
			t.Fatalf("expected = %v; got = %v", expected, got)
		}
	}

	cfg := &StdOutPassThroughConfig{
		Log:    log,
		Writer: os.Stdout,
	}

	log.Info("stdout test 1: records propagate to the output channel")
	cfg.InputChan = newInputWithRow()
	cfg.Name = "stdout test 1"
	outputChan, _ := NewStdOutPassThrough(cfg)
	close(cfg.InputChan)
	results := drainAll(outputChan)
	expectField(results[0], "key1", "1")
	expectField(results[0], "key2", "value2")

	log.Info("stdout test 2: records render as JSON on the given Writer")
	cfg.InputChan = newInputWithRow()
	cfg.Name = "stdout test 2"
	buf := bytes.Buffer{}
	cfg.Writer = &buf
	outputChan, _ = NewStdOutPassThrough(cfg)
	close(cfg.InputChan)
	drainAll(outputChan)
	expected := "{\"key1\": \"1\", \"key2\": \"value2\"}\n" // records are written with a trailing newline.
	if got := buf.String(); got != expected {
		t.Fatalf("expected = %v; got = %v", expected, got)
	}

	log.Info("stdout test 3: shutdown requests are honoured")
	cfg.InputChan = newInputWithRow()
	cfg.Name = "stdout test 3"
	_, controlChan := NewStdOutPassThrough(cfg)
	ack := make(chan error, 1)
	controlChan <- ControlAction{Action: Shutdown, ResponseChan: ack}
	select {
	case <-ack:
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for NewStdOutPassThrough to shutdown")
	}

	log.Info("stdout test 4: the component panics once AbortAfterCount is exceeded")
	cfg.InputChan = newInputWithRow()
	extra := stream.NewRecord()
	extra.SetData("key1", 1)
	extra.SetData("key2", "value2")
	cfg.InputChan <- extra // a second row to push the count over the limit.
	cfg.Name = "stdout test 4"
	cfg.AbortAfterCount = 1
	buf = bytes.Buffer{}
	cfg.Writer = &buf
	panicked := make(chan bool, 1)
	cfg.PanicHandlerFn = func() {
		if r := recover(); r != nil {
			log.Info("abort-after panic recovered")
			panicked <- true
		}
	}
	NewStdOutPassThrough(cfg)
	close(cfg.InputChan)
	select {
	case <-panicked:
	case <-time.After(time.Second * 3):
		t.Fatal("timeout waiting for the abort-after panic")
	}
}
