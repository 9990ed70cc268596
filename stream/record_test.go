package stream

import (
	"reflect"
	"testing"

	"github.com/imfpipe/imfpipe/logger"
)

func TestRecord_RecordIsNil(t *testing.T) {
	if NewRecord().RecordIsNil() {
		t.Fatal("TestRecord_RecordIsNil: expected a new record (not nil)")
	}
	// A zero-value Record has no data map so it counts as nil.
	empty := Record{}
	if !empty.RecordIsNil() {
		t.Fatal("TestRecord_RecordIsNil: expected zero struct and nil record")
	}
}

func TestRecord_GetJson(t *testing.T) {
	log := logger.NewLogger("imfpipe", "info", true)
	rec := NewRecord()
	rec.SetData("key", "value")
	rec.SetData("key2", "value2")
	rec.SetData("key3", "\"textWithQuote\"")
	rec.SetData("keyWith\"Quote", "\"textWithQuote\"")
	// Quotes in both keys and values must be escaped.
	got := rec.GetJson(log, []string{"key", "key2", "key3", "keyWith\"Quote"})
	expected := "{\"key\": \"value\", \"key2\": \"value2\", \"key3\": \"\\\"textWithQuote\\\"\", \"keyWith\\\"Quote\": \"\\\"textWithQuote\\\"\"}"
	if got != expected {
		t.Fatalf("TestRecord_GetJson: unexpected value from GetJSON(): expected = %v; got = %v", expected, got)
	}
}

func TestRecord_GetSortedDataMapKeys(t *testing.T) {
	rec := NewRecord()
	rec.SetData("keyA", "valueA")
	rec.SetData("keyC", "valueC")
	rec.SetData("keyB", "valueB")
	// Keys come back in alphabetical order regardless of insertion order.
	got := rec.GetSortedDataMapKeys()
	expected := []string{"keyA", "keyB", "keyC"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("TestRecord_GetSortedDataMapKeys failed: expected = %v; got = %v", expected, got)
	}
}
