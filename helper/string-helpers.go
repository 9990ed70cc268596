package helper

import (
	"encoding/csv"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	om "github.com/cevaris/ordered_map"
	"github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/logger"
)

// TokensToOrderedMap parses 'k1:v1,k2:v2' into an ordered map, preserving
// token order. Tokens without a colon are ignored.
func TokensToOrderedMap(s string) *om.OrderedMap {
	o := om.NewOrderedMap()
	for _, token := range strings.Split(s, ",") {
		kv := strings.Split(token, ":")
		if len(kv) >= 2 {
			o.Set(kv[0], kv[1])
		}
	}
	return o
}

// CsvStringOfTokensToMap parses a CSV of 'key:value' tokens into a map.
// Tokens may be quoted so values can contain commas and spaces,
// e.g. '"#sqlText:truncate table t1"'. Only the first colon splits the key
// from the value, so SQL text with colons survives intact.
func CsvStringOfTokensToMap(log logger.Logger, s string) (map[string]string, error) {
	records, err := csv.NewReader(strings.NewReader(s)).ReadAll()
	if err != nil {
		return nil, err
	}
	m := make(map[string]string)
	for _, line := range records {
		for _, v := range line {
			tokens := strings.SplitN(v, ":", 2)
			if len(tokens) < 2 {
				return nil, fmt.Errorf("expected 'key:value' token but found %q", v)
			}
			m[strings.TrimSpace(tokens[0])] = strings.TrimSpace(tokens[1])
		}
	}
	log.Debug("CsvStringOfTokensToMap() returning: ", m)
	return m, nil
}

// CsvToStringSliceTrimSpaces splits 'f1, f2, f3' on commas and trims each
// token.
func CsvToStringSliceTrimSpaces(s string) []string {
	tokens := strings.Split(s, ",")
	for x := range tokens {
		tokens[x] = strings.TrimSpace(tokens[x])
	}
	return tokens
}

// GetStringFromInterfaceUseUtcTime renders input as a string with times in UTC
// so gt/lt string comparison is stable.
func GetStringFromInterfaceUseUtcTime(log logger.Logger, input interface{}) string {
	return GetStringFromInterface(log, input, true)
}

// GetStringFromInterfacePreserveTimeZone renders input as a string with times
// left in their own zone.
func GetStringFromInterfacePreserveTimeZone(log logger.Logger, input interface{}) string {
	return GetStringFromInterface(log, input, false)
}

// GetStringFromInterface renders a record value as a string. Floats keep all
// decimal places without an exponent, times use the Snowflake-compatible
// format and nil renders empty.
func GetStringFromInterface(log logger.Logger, input interface{}, useUTC bool) (retval string) {
	switch v := input.(type) {
	case int, int16, int32, int64, int8, uint8:
		retval = fmt.Sprintf("%d", v)
	case string:
		retval = v
	case float32:
		retval = strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		retval = strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		if useUTC {
			retval = v.UTC().Format(constants.TimeFormatYearSecondsTZ)
		} else {
			retval = v.Format(constants.TimeFormatYearSecondsTZ)
		}
	case []uint8:
		retval = string(v)
	case bool:
		retval = fmt.Sprintf("%v", v)
	case nil:
		retval = ""
	default:
		log.Panic("unhandled type while fetching string from interface: type = ", reflect.TypeOf(input), "; value = ", input)
	}
	return
}

// OrderedMapValuesToStringSlice copies the values of m into slice l starting
// at *idx, advancing *idx as it goes.
func OrderedMapValuesToStringSlice(log logger.Logger, m *om.OrderedMap, l *[]string, idx *int) {
	iter := m.IterFunc()
	if iter == nil {
		log.Panic("Failed to get iterFunc in OrderedMapValuesToStringSlice()")
	}
	for kv, ok := iter(); ok; kv, ok = iter() {
		(*l)[*idx] = kv.Value.(string)
		*idx++
	}
}

// GetTrueFalseStringAsBool reports whether s contains "true", case
// insensitive, after trimming spaces.
func GetTrueFalseStringAsBool(s string) bool {
	return regexp.MustCompile("(?i)true").MatchString(strings.TrimSpace(s))
}

// SplitRight splits s on the last occurrence of c. If c is absent the whole
// string is returned on the left.
func SplitRight(s string, c string) (string, string) {
	i := strings.LastIndex(s, c)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+len(c):]
}

// InterfaceToString renders each value in src as a string, avoiding exponents
// for floats that hold integral values.
func InterfaceToString(src []interface{}) []string {
	retval := make([]string, len(src))
	for i, v := range src {
		switch x := v.(type) {
		case float64:
			if x == float64(int(x)) {
				retval[i] = fmt.Sprint(int(x))
			} else {
				retval[i] = strconv.FormatFloat(x, 'g', -1, 64)
			}
		default:
			retval[i] = fmt.Sprint(v)
		}
	}
	return retval
}
