package components_test

import (
	"path"
	"testing"

	"github.com/imfpipe/imfpipe/components"
	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms"
	"github.com/imfpipe/imfpipe/rdbms/shared"
	"github.com/imfpipe/imfpipe/stream"
)

func TestSnowflakeLoader(t *testing.T) {
	log := logger.NewLogger("imfpipe", "info", true)
	fileName := "imf-indicators-1.csv"
	stageName := "imf_datamapper_stage"
	tableName := rdbms.SchemaTable{SchemaTable: "IMF_DATAMAPPER_INDICATORS"}

	newInputWithFile := func() (chan stream.Record, stream.Record) {
		inputChan := make(chan stream.Record, int(c.ChanSize))
		rec := stream.NewRecord()
		rec.SetData(components.Defaults.ChanField4FileName, fileName)
		inputChan <- rec
		close(inputChan)
		return inputChan, rec
	}
	assertPassThrough := func(outputChan chan stream.Record) {
		t.Helper()
		for rec := range outputChan {
			if rec.GetData(components.Defaults.ChanField4FileName) != fileName {
				t.Fatal("Unexpected fileName found on NewSnowflakeLoader outputChan. Expected: ", fileName,
					". Found: ", rec.GetData(components.Defaults.ChanField4FileName))
			}
		}
	}
	collectSql := func(resultChan chan string) []string {
		close(resultChan)
		res := make([]string, 0)
		for s := range resultChan {
			log.Debug("dumping s: ", s)
			res = append(res, s)
		}
		return res
	}

	// Test 1 - incremental load: no delete, no COPY force.
	inputChan, rec := newInputWithFile()
	db, resultChan := shared.NewMockConnectionWithMockTx(log, "snowflake")
	cfg := components.SnowflakeLoaderConfig{
		Log:                     log,
		Name:                    "Test SnowflakeLoader",
		InputChan:               inputChan,
		InputChanField4FileName: components.Defaults.ChanField4FileName,
		DeleteAll:               false,
		FnGetSnowflakeSqlSlice:  components.GetSqlSliceSnowflakeCopyInto,
		StepWatcher:             nil,
		WaitCounter:             nil,
		Db:                      db,
		StageName:               stageName,
		TargetSchemaTableName:   tableName}
	outputChan, _ := components.NewSnowflakeLoader(&cfg)
	assertPassThrough(outputChan)
	res := collectSql(resultChan)
	wantAlter := "alter session set autocommit = false"
	wantCopy := "copy into " + tableName.String() + " from '@" + path.Join(stageName, fileName) + "'"
	if res[0] != wantAlter {
		t.Fatal("unexpected SQL string produced for ALTER SESSION statement. Expected: ", wantAlter, ". Got: ", res[0])
	}
	if res[1] != wantCopy {
		t.Fatal("unexpected SQL string produced for COPY statement. Expected: ", wantCopy, ". Got: ", res[1])
	}

	// Test 2 - snapshot load: target rows deleted first, COPY forced.
	inputChan2 := make(chan stream.Record, int(c.ChanSize))
	inputChan2 <- rec
	close(inputChan2)
	db2, resultChan2 := shared.NewMockConnectionWithMockTx(log, "snowflake")
	cfg.DeleteAll = true
	cfg.Db = db2
	cfg.InputChan = inputChan2
	outputChan2, _ := components.NewSnowflakeLoader(&cfg)
	assertPassThrough(outputChan2)
	res2 := collectSql(resultChan2)
	wantDelete := "delete from IMF_DATAMAPPER_INDICATORS"
	wantForcedCopy := "copy into " + tableName.String() + " from '@" + path.Join(stageName, fileName) + "' force=true"
	if res2[0] != wantAlter {
		t.Fatal("unexpected SQL string produced for ALTER SESSION statement. Expected: ", wantAlter, ". Found: ", res2[0])
	}
	if res2[1] != wantDelete {
		t.Fatal("unexpected SQL string produced for DELETE statement. Expected: ", wantDelete, ". Found: ", res2[1])
	}
	if res2[2] != wantForcedCopy {
		t.Fatal("unexpected SQL string produced for COPY statement. Expected: ", wantForcedCopy, ". Found: ", res2[2])
	}
}
