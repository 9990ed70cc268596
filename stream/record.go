// Package stream defines the record type passed between pipe components over
// channels.
package stream

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	om "github.com/cevaris/ordered_map"
	"github.com/imfpipe/imfpipe/helper"
	"github.com/imfpipe/imfpipe/logger"
)

// Record carries one row of data between components. Values may be nil to
// represent database NULLs.
type Record struct {
	data map[string]interface{}
}

// NewRecord returns an empty record ready for SetData calls. Records travel
// over channels by value.
func NewRecord() Record {
	return Record{data: make(map[string]interface{})}
}

// NewNilRecord returns a record with no backing map, used as a stream
// terminator by components that need one.
func NewNilRecord() Record {
	return Record{}
}

func (sr Record) RecordIsNil() bool {
	return sr.data == nil
}

func (sr Record) SetData(name string, value interface{}) {
	sr.data[name] = value
}

// GetData returns the value stored against name. Missing keys are a pipe
// definition bug so we panic rather than return a zero value.
func (sr Record) GetData(name string) interface{} {
	val, ok := sr.data[name]
	if !ok {
		panic(fmt.Sprintf("Invalid key name %q supplied while trying to fetch value from record: %v", name, sr.data))
	}
	return val
}

func (sr Record) GetDataMap() map[string]interface{} {
	return sr.data
}

func (sr Record) GetDataLen() int {
	return len(sr.data)
}

// GetDataAsStringUseUtcTime renders the named value as a string with times in
// UTC so gt/lt string comparison is stable across zones.
func (sr Record) GetDataAsStringUseUtcTime(log logger.Logger, name string) string {
	return sr.stringValue(log, name, true)
}

// GetDataAsStringPreserveTimeZone renders the named value as a string with
// times left in their own zone.
func (sr Record) GetDataAsStringPreserveTimeZone(log logger.Logger, name string) string {
	return sr.stringValue(log, name, false)
}

func (sr Record) stringValue(log logger.Logger, name string, useUTC bool) string {
	v, ok := sr.data[name]
	if !ok {
		panic(fmt.Sprintf("unexpected field %q does not exist in the input stream (bad pipe definition?)", name))
	}
	return helper.GetStringFromInterface(log, v, useUTC)
}

// GetDataKeysAsSlice returns the string rendering of each of the supplied keys
// in order.
func (sr Record) GetDataKeysAsSlice(log logger.Logger, keys []string) []string {
	retval := make([]string, 0, len(keys))
	for _, k := range keys {
		retval = append(retval, sr.GetDataAsStringPreserveTimeZone(log, k))
	}
	return retval
}

// GetSortedDataMapKeys returns the record's field names in ascending order.
func (sr Record) GetSortedDataMapKeys() []string {
	retval := make([]string, 0, len(sr.data))
	for k := range sr.data {
		retval = append(retval, k)
	}
	sort.Strings(retval)
	return retval
}

// GetDataByKeys appends the values named by the ordered map's values into
// slice l starting at *idx, advancing *idx as it goes. The ordered map's
// values are record field names; its order drives bind variable order in
// generated DML.
func (sr Record) GetDataByKeys(log logger.Logger, keys *om.OrderedMap, l *[]interface{}, idx *int) {
	iter := keys.IterFunc()
	if iter == nil {
		log.Panic("GetDataByKeys() failed to get iterFunc.")
	}
	for kv, ok := iter(); ok; kv, ok = iter() {
		(*l)[*idx] = sr.GetData(kv.Value.(string))
		*idx++
	}
}

// GetJson renders the supplied keys and their string values as a JSON object.
func (sr Record) GetJson(log logger.Logger, keys []string) string {
	out := make([]string, len(keys))
	for idx, key := range keys {
		jsonValue, err := json.Marshal(sr.GetDataAsStringPreserveTimeZone(log, key))
		if err != nil {
			log.Panic("Error marshalling the value of key '", key, "' to JSON")
		}
		out[idx] = fmt.Sprintf("%q: %s", key, string(jsonValue))
	}
	return fmt.Sprintf("{%v}", strings.Join(out, ", "))
}
