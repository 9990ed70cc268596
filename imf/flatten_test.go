package imf

import (
	"testing"
	"time"

	"github.com/imfpipe/imfpipe/constants"
)

func TestFlattenOrderingAndNulls(t *testing.T) {
	v1 := 2.5
	v2 := 0.3
	values := Values{
		"USA": {"2024": nil, "2023": &v1},
		"GBR": {"2023": &v2},
	}
	ts := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	got := Flatten(testLog, "NGDP_RPCH", values, ts)
	if len(got) != 3 {
		t.Fatal("expected 3 rows; got ", len(got))
	}
	// Rows ordered by country then year.
	r := got[0]
	if r.GetData(constants.FieldCountryCode) != "GBR" || r.GetData(constants.FieldYear) != 2023 {
		t.Fatalf("unexpected first row: %v", r.GetDataMap())
	}
	if r.GetData(constants.FieldValue).(float64) != 0.3 {
		t.Error("expected GBR 2023 value 0.3")
	}
	if got[2].GetData(constants.FieldValue) != nil {
		t.Error("expected USA 2024 to be nil")
	}
	for _, rec := range got {
		if rec.GetData(constants.FieldIngestionTimestamp) != ts {
			t.Fatal("expected every row to share the run ingestion timestamp")
		}
		if rec.GetData(constants.FieldIndicator) != "NGDP_RPCH" {
			t.Fatal("expected indicator code on every row")
		}
	}
}

func TestFlattenOrdersYearsNumerically(t *testing.T) {
	v := 1.0
	// String ordering would put "1000" before "999".
	values := Values{
		"ROM": {"1000": &v, "999": &v, "1950": &v},
	}
	got := Flatten(testLog, "NGDP_RPCH", values, time.Now().UTC())
	if len(got) != 3 {
		t.Fatal("expected 3 rows; got ", len(got))
	}
	expected := []int{999, 1000, 1950}
	for i, rec := range got {
		if y := rec.GetData(constants.FieldYear); y != expected[i] {
			t.Fatalf("expected year %v at position %v; got %v", expected[i], i, y)
		}
	}
}

func TestFlattenSkipsNonNumericYears(t *testing.T) {
	v := 1.0
	values := Values{
		"USA": {"2023": &v, "projected": &v},
	}
	got := Flatten(testLog, "LUR", values, time.Now().UTC())
	if len(got) != 1 {
		t.Fatal("expected the non-numeric year key to be skipped; got ", len(got), " rows")
	}
}
