package rdbms_test

import (
	"strings"
	"testing"

	"github.com/imfpipe/imfpipe/rdbms"
	"github.com/imfpipe/imfpipe/rdbms/shared"
)

func TestConnectionDetailsToMap(t *testing.T) {
	// DsnConnectionDetailsToMap() will initialise supplied map if nil.
	recovered := false
	d := &shared.DsnConnectionDetails{
		Dsn: "myDsn",
	}
	var dm map[string]string
	// Call the func to convert struct to map.
	func() {
		defer func() {
			if r := recover(); r != nil {
				recovered = true
			}
		}()
		dm = shared.DsnConnectionDetailsToMap(dm, d)
	}()
	if recovered { // if there was a recovery from nil pointer error...
		t.Fatal("expected map to be initialised in call to DsnConnectionDetailsToMap()")
	}
	if dm["dsn"] != "myDsn" {
		t.Fatal("expected dsn key to be populated")
	}
}

func TestSnowflakeDsnRoundTrip(t *testing.T) {
	c := &rdbms.SnowflakeConnectionDetails{
		Account:   "myaccount",
		DBName:    "mydb",
		Schema:    "public",
		User:      "loader",
		Password:  "secret",
		Warehouse: "wh1",
		RoleName:  "sysadmin",
	}
	dsn, err := rdbms.SnowflakeGetDSN(c)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(dsn, "snowflake://") {
		t.Fatal("expected snowflake:// prefix; got ", dsn)
	}
	got, err := rdbms.SnowflakeParseDSN(dsn)
	if err != nil {
		t.Fatal(err)
	}
	if got.Account != c.Account || got.User != c.User || got.DBName != c.DBName ||
		got.Schema != c.Schema || got.Warehouse != c.Warehouse {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSnowflakeStagingSql(t *testing.T) {
	tgt := rdbms.SchemaTable{SchemaTable: "public.IMF_DATAMAPPER_INDICATORS"}
	stg := rdbms.SchemaTable{SchemaTable: tgt.AppendSuffix("_STAGING")}
	// Prepare statements clone and empty the staging table.
	got := rdbms.GetSqlSliceSnowflakeStagingPrepare(tgt, stg)
	expected := []string{
		"create table if not exists public.IMF_DATAMAPPER_INDICATORS_STAGING like public.IMF_DATAMAPPER_INDICATORS",
		"truncate table public.IMF_DATAMAPPER_INDICATORS_STAGING",
	}
	if len(got) != len(expected) {
		t.Fatal("unexpected statement count: ", len(got))
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Fatalf("expected %q; got %q", expected[i], got[i])
		}
	}
	// Swap statement.
	if s := rdbms.GetSqlSnowflakeSwap(tgt, stg); s != "alter table public.IMF_DATAMAPPER_INDICATORS swap with public.IMF_DATAMAPPER_INDICATORS_STAGING" {
		t.Fatal("unexpected swap SQL: ", s)
	}
	// Row count poll statement.
	if s := rdbms.GetSqlSnowflakeRowCount(stg); s != "select count(*) from public.IMF_DATAMAPPER_INDICATORS_STAGING" {
		t.Fatal("unexpected count SQL: ", s)
	}
}
