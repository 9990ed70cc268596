package file

import (
	"compress/gzip"
	"encoding/csv"
	"os"
	"strings"
	"testing"

	"github.com/imfpipe/imfpipe/logger"
)

var header = []string{"INDICATOR", "COUNTRY_CODE"}

var data = [][]string{
	{"NGDP_RPCH", "USA"},
	{"NGDP_RPCH", "GBR"},
	{"LUR", "USA"},
	{"LUR", "GBR"}}

func TestNewCsvFileGenerator(t *testing.T) {
	log := logger.NewLogger("csv test", "debug", true)

	readBack := func(fileName string, useGzip bool) [][]string {
		t.Helper()
		f, err := os.Open(fileName)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		var rows [][]string
		if useGzip {
			gz, err := gzip.NewReader(f)
			if err != nil {
				t.Fatal(err)
			}
			rows, _ = csv.NewReader(gz).ReadAll()
		} else {
			rows, _ = csv.NewReader(f).ReadAll()
		}
		for _, r := range rows {
			log.Debug(r)
		}
		return rows
	}
	expectRow := func(got []string, want []string, what string) {
		t.Helper()
		if got[0] != want[0] || got[1] != want[1] {
			t.Fatalf("read bad %v: got %v; want %v", what, got, want)
		}
	}

	log.Debug("Test 1 - starting...")
	// Max 3 rows per file so 4 data rows roll over into a second file.
	csv1 := NewCSVFileOutput(log, "", "test", "csv", 3, 0, false)
	csv1.SetHeader(header)
	fileNames := make([]string, 0)
	for _, value := range data {
		if fileName := csv1.MustWriteToCSV(value); fileName != "" {
			log.Info("FileName: ", fileName)
			fileNames = append(fileNames, fileName)
		}
	}
	csv1.Cleanup()
	log.Debug("Test 1 - finished writing CSV files")

	// File one holds the header plus the first three data rows.
	rows1 := readBack(fileNames[0], false)
	expectRow(rows1[0], header, "header")
	expectRow(rows1[1], data[0], "record")
	expectRow(rows1[2], data[1], "record")
	expectRow(rows1[3], data[2], "record")

	// File two holds the header again plus the final data row.
	rows2 := readBack(fileNames[1], false)
	expectRow(rows2[0], header, "header")
	expectRow(rows2[1], data[3], "record")

	log.Debug("Test 2 - starting...")
	csv2 := NewCSVFileOutput(log, "", "test", "csv", 4, 0, true)
	csv2.SetHeader(header)
	fileNames2 := make([]string, 0)
	for _, value := range data {
		if fileName := csv2.MustWriteToCSV(value); fileName != "" {
			log.Info("FileName2: ", fileName)
			if !strings.HasSuffix(fileName, ".gz") {
				t.Fatal("csv file is missing .gz extension")
			}
			fileNames2 = append(fileNames2, fileName)
		}
	}
	csv2.Cleanup()
	log.Debug("Test 2 - finished writing CSV files")

	rows3 := readBack(fileNames2[0], true)
	expectRow(rows3[0], header, "header from gzipped csv")
}
