package shared

import (
	"regexp"
	"testing"

	"github.com/cevaris/ordered_map"
	"github.com/sirupsen/logrus"
)

func TestSqlInsertTxtBatch(t *testing.T) {
	log := logrus.New()
	log.Info("Starting tests for SQL INSERT...")

	keyCols := ordered_map.NewOrderedMap()
	keyCols.Set("col1", "a")
	keyCols.Set("col2", "b")
	otherCols := ordered_map.NewOrderedMap()
	otherCols.Set("col3", "c")

	db, _ := NewMockConnectionWithMockTx(log, "snowflake")
	dml := db.GetDmlGenerator()
	gen := dml.NewInsertGenerator(&SqlStatementGeneratorConfig{
		Log:             log,
		OutputSchema:    "",
		SchemaSeparator: ".",
		OutputTable:     "t2",
		TargetKeyCols:   keyCols,
		TargetOtherCols: otherCols}).(SqlStmtTxtBatcher)

	whitespace := regexp.MustCompile("[\t\r\n\f]")
	assertStatement := func(expected string) {
		t.Helper()
		got := whitespace.ReplaceAllString(gen.GetStatement(), " ")
		want := whitespace.ReplaceAllString(expected, " ")
		if got != want {
			t.Fatalf("Bad SQL INSERT generated: expected = '%v'; got = '%v'", want, got)
		}
	}

	// A batch reports full once its row capacity is reached.
	gen.InitBatch(2)
	if _, err := gen.AddValuesToBatch([]interface{}{"x", "y", 123}); err != nil {
		t.Fatal(err)
	}
	batchIsFull, err := gen.AddValuesToBatch([]interface{}{"p", "q", 2})
	if err != nil {
		t.Fatal(err)
	}
	if !batchIsFull {
		t.Fatal("The batch *should* be full but it is not.")
	}

	// A row with more values than key plus other columns must error.
	gen.InitBatch(1)
	if _, err := gen.AddValuesToBatch([]interface{}{"a", "b", 456, 789}); err == nil {
		t.Fatal("There should have been an error. Incorrect number of values deliberately supplied in batch.")
	}

	// Single row batch fills immediately.
	gen.InitBatch(1)
	batchIsFull, err = gen.AddValuesToBatch([]interface{}{"a", "b", 456})
	if err != nil {
		t.Fatal(err)
	}
	if !batchIsFull {
		t.Fatal("The batch *should* be full but it is not.")
	}
	if len(gen.GetValues()) != 3 {
		t.Fatal("Error, incorrect number of args.")
	}
	assertStatement(`insert into t2 (a,b,c) values ( :1,:2,:3 )`)

	// Two rows produce a second values tuple with continued bind numbering.
	gen.InitBatch(2)
	if _, err := gen.AddValuesToBatch([]interface{}{"a", "b", 456}); err != nil {
		t.Fatal(err)
	}
	if _, err := gen.AddValuesToBatch([]interface{}{"c", "d", 789}); err != nil {
		t.Fatal(err)
	}
	assertStatement(`insert into t2 (a,b,c) values ( :1,:2,:3 ),( :4,:5,:6 )`)
}
