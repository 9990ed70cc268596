package imf

import (
	"sort"
	"strconv"
	"time"

	"github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stream"
)

// RecordFieldNames lists the flattened record fields in target column order.
var RecordFieldNames = []string{
	constants.FieldIndicator,
	constants.FieldCountryCode,
	constants.FieldYear,
	constants.FieldValue,
	constants.FieldIngestionTimestamp,
}

// Flatten converts the nested values for one indicator into stream records
// ordered by country code then year.  Non-numeric year keys are skipped with
// a warning.  A nil value is preserved so it can load as a SQL NULL.
// The same ingestionTime is stamped onto every record of a run.
func Flatten(log logger.Logger, code string, values Values, ingestionTime time.Time) []stream.Record {
	countries := make([]string, 0, len(values))
	for country := range values {
		countries = append(countries, country)
	}
	sort.Strings(countries)
	retval := make([]stream.Record, 0)
	type yearEntry struct {
		key string // original map key, used to look up the value.
		num int
	}
	for _, country := range countries { // for each country in order...
		years := make([]yearEntry, 0, len(values[country]))
		for year := range values[country] {
			yearNum, err := strconv.Atoi(year)
			if err != nil { // if the year key is not a number...
				log.Warn("skipping non-numeric year ", year, " for indicator ", code, " country ", country)
				continue
			}
			years = append(years, yearEntry{key: year, num: yearNum})
		}
		// Sort on the parsed value so ordering holds across digit counts.
		sort.Slice(years, func(i, j int) bool { return years[i].num < years[j].num })
		for _, year := range years { // for each year in order...
			rec := stream.NewRecord()
			rec.SetData(constants.FieldIndicator, code)
			rec.SetData(constants.FieldCountryCode, country)
			rec.SetData(constants.FieldYear, year.num)
			if v := values[country][year.key]; v != nil {
				rec.SetData(constants.FieldValue, *v)
			} else {
				rec.SetData(constants.FieldValue, nil)
			}
			rec.SetData(constants.FieldIngestionTimestamp, ingestionTime)
			retval = append(retval, rec)
		}
	}
	return retval
}
