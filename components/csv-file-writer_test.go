package components

import (
	"bufio"
	"fmt"
	"io/ioutil"
	"os"
	"testing"
	"time"

	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stream"
)

func TestNewCsvFileWriter(t *testing.T) {
	log := logger.NewLogger("imfpipe", "info", true)

	log.Info("csv writer test 1: input records land in a CSV file with a header")
	obsTime := time.Now().UTC()
	obsTimeStr := obsTime.Format(c.TimeFormatYearSecondsTZ) // CSV files carry timestamps in this format.
	indicator := "NGDP_RPCH"
	input := make(chan stream.Record, c.ChanSize)
	rec := stream.NewRecord()
	rec.SetData("INDICATOR", indicator)
	rec.SetData("OBS_DATE", obsTime)
	input <- rec
	close(input)
	header := []string{"INDICATOR", "OBS_DATE"}
	dir, err := ioutil.TempDir("", "test-csv-file-writer-")
	if err != nil {
		t.Fatal("Unable to create tmp dir: ", err)
	}
	defer func() {
		if err := os.Remove(dir); err != nil {
			log.Panic("unable to remove tmp dir")
		}
	}()
	cfg := &CsvFileWriterConfig{
		Name:                     "csv writer test 1",
		Log:                      log,
		InputChan:                input,
		OutputDir:                dir,
		FileNamePrefix:           "test",
		FileNameExtension:        "csv",
		MaxFileRows:              1000,
		MaxFileBytes:             1048576,
		HeaderFields:             header,
		OutputChanField4FilePath: "#filePath",
	}
	outputChan, _ := NewCsvFileWriter(cfg)
	// The writer emits one record per file containing its path.
	var csvPath string
	for rec := range outputChan {
		csvPath = rec.GetDataAsStringPreserveTimeZone(log, "#filePath")
		log.Debug("CSV writer generated file: ", csvPath)
	}
	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatal("error opening CSV file: ", err)
	}
	defer func() {
		if err := os.Remove(csvPath); err != nil {
			t.Fatal(err)
		}
	}()
	reader := bufio.NewReader(f)
	headerLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatal("error reading line: ", err)
	}
	dataLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatal("error reading line: ", err)
	}
	expectedData := fmt.Sprintf("%v,%v\n", indicator, obsTimeStr)
	if headerLine != "INDICATOR,OBS_DATE\n" || dataLine != expectedData {
		t.Fatalf("unexpected CSV file contents: header = %q; data = %q", headerLine, dataLine)
	}

	log.Info("csv writer test 2: shutdown requests are honoured")
	cfg2 := &CsvFileWriterConfig{
		Name:                     "csv writer test 2",
		Log:                      log,
		InputChan:                make(chan stream.Record, c.ChanSize), // left open so only shutdown can end the component.
		OutputDir:                dir,
		FileNamePrefix:           "test",
		FileNameExtension:        "csv",
		MaxFileRows:              1000,
		MaxFileBytes:             1048576,
		HeaderFields:             header,
		OutputChanField4FilePath: "#filePath",
	}
	_, controlChan := NewCsvFileWriter(cfg2)
	ack := make(chan error, 1)
	controlChan <- ControlAction{Action: Shutdown, ResponseChan: ack}
	select {
	case <-ack:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for CSV file writer to shutdown")
	}

	// TODO: test that CSV file writer does not output a row upon shutdown.
	// TODO: test that CSV file writer does not output a final row when there is no contents written i.e. zero rows input.
}
