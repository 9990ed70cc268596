package components

import (
	"strconv"
	"testing"
	"time"

	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stream"
	"github.com/pkg/errors"
)

// awaitRows consumes dataChan until numRows records arrive or the timeout
// expires, in which case an error is returned.
func awaitRows(dataChan chan stream.Record, numRows int, timeoutSec int) error {
	done := make(chan struct{}, 1)
	go func() {
		seen := 0
		for range dataChan {
			seen++
			if seen >= numRows {
				done <- struct{}{}
				break
			}
		}
	}()
	select {
	case <-done:
		return nil
	case <-time.After(time.Duration(timeoutSec) * time.Second):
		return errors.New("timeout waiting for expected number of rows")
	}
}

func TestNewFilterRows(t *testing.T) {
	log := logger.NewLogger("imfpipe", "info", true)
	timeoutSec := 10
	maxFieldValue := 100

	newRecWithField := func(value interface{}) stream.Record {
		rec := stream.NewRecord()
		rec.SetData("myField", value)
		return rec
	}

	log.Info("filter test 1: the component responds to shutdown requests")
	input := make(chan stream.Record, 10)
	cfg := &FilterRowsConfig{
		Log:            log,
		Name:           "test-filter-max",
		InputChan:      input,
		FilterType:     filterRowsGetMax,
		FilterMetadata: "myField",
	}
	_, controlChan := NewFilterRows(cfg)
	ack := make(chan error, 1)
	controlChan <- ControlAction{ResponseChan: ack, Action: Shutdown}
	select {
	case <-ack:
	case <-time.After(time.Duration(timeoutSec) * time.Second):
		t.Fatal("filter test 1: timeout waiting for shutdown")
	}

	log.Info("filter test 2: ", filterRowsGetMax, " stays silent while the input channel is open")
	input <- newRecWithField(1)
	input <- newRecWithField(maxFieldValue)
	output2, _ := NewFilterRows(cfg)
	// A short timeout is the success condition here.
	if err := awaitRows(output2, 1, 2); err == nil {
		t.Fatal("filter test 2: ", filterRowsGetMax, " produced a row before end of input")
	}

	log.Info("filter test 3: ", filterRowsGetMax, " emits once the input channel closes")
	input3 := make(chan stream.Record, 10)
	cfg.InputChan = input3
	input3 <- newRecWithField(1)
	input3 <- newRecWithField(maxFieldValue)
	close(input3)
	output3, _ := NewFilterRows(cfg)
	if err := awaitRows(output3, 1, timeoutSec); err != nil {
		t.Fatal("filter test 3: ", filterRowsGetMax, " ", err)
	}

	log.Info("filter test 4: ", filterRowsGetMax, " emits the record holding the max value")
	input4 := make(chan stream.Record, 10)
	cfg.InputChan = input4
	input4 <- newRecWithField(1)
	input4 <- newRecWithField(maxFieldValue)
	close(input4)
	output4, _ := NewFilterRows(cfg)
	maxSeen := make(chan string, 1)
	go func() {
		for rec := range output4 {
			maxSeen <- rec.GetDataAsStringUseUtcTime(log, "myField")
			break
		}
	}()
	var got string
	select {
	case got = <-maxSeen:
	case <-time.After(time.Duration(timeoutSec) * time.Second):
		t.Fatal("filter test 4: timeout waiting for row with max value")
	}
	if expected := strconv.Itoa(maxFieldValue); got != expected {
		t.Fatalf("filter test 4: unexpected max from %v: expected %v; got %v", filterRowsGetMax, expected, got)
	}

	// TODO: FilterRows test N:
	//  Test N - assert that the final max record doesn't contain leaked fields from previous max records if the final
	//  records comprises of less fields.  This is unlikely given the way we use input components.
}

func TestFilterRowsLastRowInStream(t *testing.T) {
	log := logger.NewLogger("imfpipe", "info", true)
	lastRow, err := setupLastRowInStream(log, "")
	if err != nil {
		t.Fatal(err)
	}
	// A normal record is held back.
	got, _ := lastRow(stream.NewRecord())
	if !got.RecordIsNil() {
		t.Fatal("expected the filter to hold back an in-stream record; got: ", got)
	}
	// The stream-end marker flushes the held record.
	got, _ = lastRow(stream.NewNilRecord())
	if got.RecordIsNil() {
		t.Fatal("expected the filter to flush the held record at end of stream")
	}
}

func TestFilterRowsJsonLogic(t *testing.T) {
	log := logger.NewLogger("imfpipe", "debug", true)

	log.Info("jsonlogic test 1: a matching rule passes the record through unchanged")
	filter, err := setupJsonLogicFilter(log, `{ "==" : [ { "var" : "from" }, { "var" : "to" } ] }`)
	if err != nil {
		t.Fatalf("jsonlogic test 1: %v", err)
	}
	rec := stream.NewRecord()
	expected := "8"
	rec.SetData("from", expected)
	rec.SetData("to", expected)
	got, _ := filter(rec)
	if got.RecordIsNil() {
		t.Fatalf("jsonlogic test 1: record %v should have passed the rule", rec)
	}
	if _, ok := got.GetData("from").(string); !ok {
		t.Fatalf("jsonlogic test 1: field 'from' lost its string type")
	}
	if got.GetDataAsStringUseUtcTime(log, "from") != expected {
		t.Fatalf("jsonlogic test 1: field 'from' changed; expected %v", expected)
	}
	if got.GetDataAsStringUseUtcTime(log, "to") != expected {
		t.Fatalf("jsonlogic test 1: field 'to' changed; expected %v", expected)
	}

	log.Info("jsonlogic test 2: two equal Time values compare equal")
	filter, err = setupJsonLogicFilter(log, `{ "==" : [ { "var" : "dateFrom" }, { "var" : "dateTo" } ] }`)
	if err != nil {
		t.Fatalf("jsonlogic test 2: %v", err)
	}
	sameTime := time.Date(1900, 1, 1, 12, 0, 0, 1, time.Local)
	rec = stream.NewRecord()
	rec.SetData("dateFrom", sameTime)
	rec.SetData("dateTo", sameTime)
	if got, _ = filter(rec); got.RecordIsNil() {
		t.Fatalf("jsonlogic test 2: record %v should have passed the rule", rec)
	}

	log.Info("jsonlogic test 3: a Time value compares equal to its RFC3339 literal")
	filter, err = setupJsonLogicFilter(log, `{ "==" : [ { "var" : "dateFrom" }, "1900-01-01T12:00:00.000000001Z" ] }`)
	if err != nil {
		t.Fatalf("jsonlogic test 3: %v", err)
	}
	rec = stream.NewRecord()
	rec.SetData("dateFrom", sameTime)
	rec.SetData("dateTo", sameTime)
	if got, _ = filter(rec); got.RecordIsNil() {
		t.Fatalf("jsonlogic test 3: record %v should have passed the rule", rec)
	}

	log.Info("jsonlogic test 4: a junk rule fails at setup")
	if _, err = setupJsonLogicFilter(log, `junkRuleToCauseError`); err == nil {
		t.Fatal("jsonlogic test 4: error expected but not returned")
	}
}

func TestFilterRowsAbortAfter(t *testing.T) {
	log := logger.NewLogger("imfpipe", "debug", true)

	filter, err := setupAbortAfterFilter(log, "1")
	if err != nil {
		t.Fatalf("abort-after setup: expected no error; got: %v", err)
	}

	log.Info("abort-after test 1: records within the limit pass through")
	rec := stream.NewRecord()
	expected := "testValue"
	rec.SetData("testKey", expected)
	got, err := filter(rec)
	if err != nil {
		t.Fatalf("abort-after test 1: unexpected error: %v", err)
	}
	if got.RecordIsNil() {
		t.Fatalf("abort-after test 1: input record %v was not returned", rec)
	}
	if v := got.GetDataAsStringPreserveTimeZone(log, "testKey"); v != expected {
		t.Fatalf("abort-after test 1: expected = %v; got = %v", expected, v)
	}

	log.Info("abort-after test 2: the filter errors once the limit is exceeded")
	// The limit was 1, so a second record must trip the abort.
	if _, err = filter(rec); err == nil {
		t.Fatal("abort-after test 2: expected error but none received")
	} else if !errors.Is(err, errFilterAbortAfterExceededCount) {
		t.Fatalf("abort-after test 2: expected errFilterAbortAfterExceededCount; got: %v", err)
	}

	log.Info("abort-after test 3: a limit of 0 disables the check")
	filter, err = setupAbortAfterFilter(log, "0")
	if err != nil {
		t.Fatalf("abort-after test 3: expected no error; got: %v", err)
	}
	rec = stream.NewRecord()
	rec.SetData("testKey", expected)
	if _, err = filter(rec); err != nil {
		t.Fatalf("abort-after test 3: unexpected error: %v", err)
	}
}
