package components_test

import (
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"github.com/cevaris/ordered_map"
	"github.com/imfpipe/imfpipe/components"
	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms/shared"
	"github.com/imfpipe/imfpipe/stream"
)

func newTableAppendTestConfig(log logger.Logger) *components.TableAppendConfig {
	omKeys := ordered_map.NewOrderedMap()
	omKeys.Set(c.FieldIndicator, c.FieldIndicator)
	omKeys.Set(c.FieldCountryCode, c.FieldCountryCode)
	omKeys.Set(c.FieldYear, c.FieldYear)
	omCols := ordered_map.NewOrderedMap()
	omCols.Set(c.FieldValue, c.FieldValue)
	omCols.Set(c.FieldIngestionTimestamp, c.FieldIngestionTimestamp)
	cfg := &components.TableAppendConfig{
		Log:                log,
		Name:               "Test TableAppend",
		CommitBatchSize:    2,
		TxtBatchNumRows:    2,
		VerifyMaxAttempts:  3,
		VerifySleepSeconds: 1,
	}
	cfg.SqlStatementGeneratorConfig.Log = log
	cfg.OutputSchema = "public"
	cfg.OutputTable = "IMF_DATAMAPPER_INDICATORS_STAGING"
	cfg.TargetKeyCols = omKeys
	cfg.TargetOtherCols = omCols
	return cfg
}

func newTableAppendTestRecord(indicator, country string, year int, value float64) stream.Record {
	rec := stream.NewRecord()
	rec.SetData(c.FieldIndicator, indicator)
	rec.SetData(c.FieldCountryCode, country)
	rec.SetData(c.FieldYear, year)
	rec.SetData(c.FieldValue, value)
	rec.SetData(c.FieldIngestionTimestamp, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	return rec
}

func TestTableAppend(t *testing.T) {
	log := logger.NewLogger("imfpipe", "info", true)

	// Mock connection whose queries return a row count matching the rows we append below.
	db, resultChan := shared.NewMockConnectionWithMockTxAndResults(log, "snowflake",
		[]string{"COUNT(*)"}, [][]driver.Value{{int64(2)}})

	// Two input rows.
	inputChan := make(chan stream.Record, int(c.ChanSize))
	inputChan <- newTableAppendTestRecord("NGDP_RPCH", "USA", 2024, 2.8)
	inputChan <- newTableAppendTestRecord("NGDP_RPCH", "GBR", 2024, 1.1)
	close(inputChan)

	cfg := newTableAppendTestConfig(log)
	cfg.InputChan = inputChan
	cfg.OutputDb = db
	outputChan, _ := components.NewTableAppend(cfg)

	// Assert that TableAppend emits one summary record with the rows appended count.
	results := make([]stream.Record, 0)
	for rec := range outputChan {
		results = append(results, rec)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 summary record from TableAppend; got %v", len(results))
	}
	got := results[0].GetData(components.Defaults.ChanField4RowsAppended)
	if got != int64(2) {
		t.Fatalf("expected 2 rows appended; got %v", got)
	}

	// Assert the SQL statements executed against the mock connection.
	close(resultChan)
	res := make([]string, 0)
	for s := range resultChan {
		res = append(res, s)
	}
	if len(res) < 2 {
		t.Fatalf("expected at least 2 SQL statements; got %v: %v", len(res), res)
	}
	expectedInsertPrefix := "insert into public.IMF_DATAMAPPER_INDICATORS_STAGING (INDICATOR,COUNTRY_CODE,YEAR,VALUE,INGESTION_TIMESTAMP)"
	if !strings.HasPrefix(strings.Join(strings.Fields(res[0]), " "), expectedInsertPrefix) {
		t.Fatalf("unexpected INSERT statement. Expected prefix: %v. Got: %v", expectedInsertPrefix, res[0])
	}
	expectedCount := "select count(*) from public.IMF_DATAMAPPER_INDICATORS_STAGING"
	if res[1] != expectedCount {
		t.Fatalf("unexpected verify statement. Expected: %v. Got: %v", expectedCount, res[1])
	}
}

func TestTableAppendVerifyTimeout(t *testing.T) {
	log := logger.NewLogger("imfpipe", "info", true)

	// Mock connection that always reports fewer rows than were appended.
	db, _ := shared.NewMockConnectionWithMockTxAndResults(log, "snowflake",
		[]string{"COUNT(*)"}, [][]driver.Value{{int64(0)}})

	inputChan := make(chan stream.Record, int(c.ChanSize))
	inputChan <- newTableAppendTestRecord("LUR", "USA", 2024, 4.1)
	close(inputChan)

	cfg := newTableAppendTestConfig(log)
	cfg.InputChan = inputChan
	cfg.OutputDb = db
	cfg.VerifyMaxAttempts = 1
	cfg.VerifySleepSeconds = 1
	recovered := make(chan bool, 1)
	cfg.PanicHandlerFn = func() {
		if r := recover(); r != nil {
			recovered <- true
		}
	}
	_, _ = components.NewTableAppend(cfg)
	select {
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for TableAppend to abort after failed row count verification")
	case <-recovered:
		// continue
	}
}

func TestTableAppendShutdown(t *testing.T) {
	log := logger.NewLogger("imfpipe", "info", true)
	db, _ := shared.NewMockConnectionWithMockTx(log, "snowflake")
	cfg := newTableAppendTestConfig(log)
	cfg.InputChan = make(chan stream.Record, int(c.ChanSize)) // dummy input channel that we won't close.
	cfg.OutputDb = db
	_, controlChan := components.NewTableAppend(cfg)
	responseChan := make(chan error, 1)
	controlChan <- components.ControlAction{Action: components.Shutdown, ResponseChan: responseChan}
	select {
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for TableAppend to shutdown")
	case <-responseChan:
		// continue
	}
}
