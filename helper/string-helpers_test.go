package helper

import (
	"testing"
)

func TestTokensToOrderedMap(t *testing.T) {
	// Test 1
	input := ""
	m := TokensToOrderedMap(input)
	if m.Len() != 0 {
		t.Fatal("expected empty ordered map but got something")
	}
	// Test 2
	input = "INDICATOR:INDICATOR,YEAR:YEAR"
	m = TokensToOrderedMap(input)
	if m.Len() != 2 {
		t.Fatal("expected 2 entries; got ", m.Len())
	}
	v, ok := m.Get("YEAR")
	if !ok || v.(string) != "YEAR" {
		t.Fatalf("expected YEAR:YEAR; got %v", v)
	}
}

func TestCsvToStringSliceTrimSpaces(t *testing.T) {
	got := CsvToStringSliceTrimSpaces(" a, b ,c ")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected slice: %v", got)
	}
}

func TestInterfaceToString(t *testing.T) {
	got := InterfaceToString([]interface{}{float64(2024), 1.25, "NGDP_RPCH", nil})
	if got[0] != "2024" {
		t.Error("expected integral float to render without exponent; got ", got[0])
	}
	if got[1] != "1.25" {
		t.Error("expected 1.25; got ", got[1])
	}
	if got[2] != "NGDP_RPCH" {
		t.Error("expected NGDP_RPCH; got ", got[2])
	}
}

func TestSplitRight(t *testing.T) {
	l, r := SplitRight("mySnowflake.IMF_DATAMAPPER_INDICATORS", ".")
	if l != "mySnowflake" || r != "IMF_DATAMAPPER_INDICATORS" {
		t.Fatalf("unexpected split: %v %v", l, r)
	}
	l, r = SplitRight("noSeparator", ".")
	if l != "noSeparator" || r != "" {
		t.Fatalf("unexpected split: %v %v", l, r)
	}
}
