package shared

import (
	"fmt"
	"strings"

	"github.com/imfpipe/imfpipe/helper"
	"github.com/pkg/errors"
)

// SqlInsertTxtBatch builds multi-row INSERT statements with numbered bind
// variables, e.g. 'insert into t (a,b) values ( :1,:2 ),( :3,:4 )'.
// It implements SqlStmtTxtBatcher so TableAppend can exec whole batches.
type SqlInsertTxtBatch struct {
	SqlStatementGeneratorConfig
	sqlCoreCfg
	ColList []string // target column names in TargetKeyCols then TargetOtherCols order.
}

// NewInsertGenerator returns an INSERT generator for the configured target
// table and columns.
func (*DmlGeneratorTxtBatch) NewInsertGenerator(cfg *SqlStatementGeneratorConfig) SqlStmtGenerator {
	FixSqlStatementGeneratorConfig(cfg)
	cfg.Log.Debug("Creating NewInsertGenerator")
	o := &SqlInsertTxtBatch{SqlStatementGeneratorConfig: *cfg}
	o.setupSqlStatement()
	return o
}

func (o *SqlInsertTxtBatch) setupSqlStatement() {
	colList := o.buildColList()
	// Everything but the VALUES clause is fixed up front; VALUES depends on
	// the batch size and is filled in by GetStatement.
	stmt := `insert into <SCHEMA><SEPARATOR><TABLE> (<TGT-COLS>) values <VALUES>`
	stmt = strings.Replace(stmt, "<SCHEMA>", o.OutputSchema, 1)
	stmt = strings.Replace(stmt, "<SEPARATOR>", o.SchemaSeparator, 1)
	stmt = strings.Replace(stmt, "<TABLE>", o.OutputTable, 1)
	stmt = strings.Replace(stmt, "<TGT-COLS>", strings.Join(colList, ","), 1)
	o.sqlStmtTemplate = stmt
	o.Log.Debug("setup INSERT generator with SQL (VALUES pending): ", o.sqlStmtTemplate)
}

func (o *SqlInsertTxtBatch) buildColList() []string {
	colList := make([]string, o.TargetKeyCols.Len()+o.TargetOtherCols.Len())
	idx := 0
	helper.OrderedMapValuesToStringSlice(o.Log, o.TargetKeyCols, &colList, &idx)
	helper.OrderedMapValuesToStringSlice(o.Log, o.TargetOtherCols, &colList, &idx)
	return colList
}

// InitBatch starts a fresh batch of up to batchSize rows. Changing the batch
// size invalidates the cached statement so GetStatement regenerates it.
func (o *SqlInsertTxtBatch) InitBatch(batchSize int) {
	o.Log.Debug("initBatch() for INSERT...")
	o.batchSize = batchSize
	if o.previousNumRowsInBatch != o.batchSize {
		o.sqlStmt = o.sqlStmtTemplate
	}
	o.rowsInBatch = 0
	if len(o.ColList) == 0 {
		o.ColList = o.buildColList()
	}
	o.sqlValues = make([]interface{}, 0, o.batchSize*len(o.ColList))
	o.Log.Debug("rowsInBatch = ", o.rowsInBatch)
	o.Log.Debug("batchSize = ", o.batchSize)
	o.Log.Debug("colList = ", o.ColList)
}

// AddValuesToBatch appends one row of values. batchIsFull tells the caller to
// exec; adding beyond a full batch is an error.
func (o *SqlInsertTxtBatch) AddValuesToBatch(values []interface{}) (batchIsFull bool, err error) {
	o.Log.Debug("SqlInsertTxtBatch.AddValuesToBatch()...")
	if o.rowsInBatch >= o.batchSize {
		return true, errors.New("no more rows allowed in INSERT batch")
	}
	if len(values) != len(o.ColList) {
		return false, errors.New("the number of values supplied does not match the number of table columns")
	}
	o.sqlValues = append(o.sqlValues, values...)
	o.rowsInBatch++
	return o.rowsInBatch >= o.batchSize, nil
}

func (o *SqlInsertTxtBatch) GetValues() []interface{} {
	return o.sqlValues
}

// GetStatement returns the INSERT for the current batch, generating the
// VALUES clause of bind variable groups when the batch size changed since the
// last call.
func (o *SqlInsertTxtBatch) GetStatement() string {
	if o.previousNumRowsInBatch != o.batchSize {
		allRows := strings.Builder{}
		valIdx := 1
		for rowIdx := 1; rowIdx <= o.rowsInBatch; rowIdx++ {
			row := strings.Builder{}
			for idy := 0; idy < len(o.ColList); idy++ {
				row.WriteString(fmt.Sprintf(",:%v", valIdx))
				valIdx++
			}
			// ',( :1,:2,:n )' per row; the leading commas are trimmed below.
			allRows.WriteString(fmt.Sprintf(",( %v )", strings.TrimLeft(row.String(), ",")))
		}
		o.sqlStmt = strings.Replace(o.sqlStmt, "<VALUES>", strings.TrimLeft(allRows.String(), ","), 1)
		o.previousNumRowsInBatch = o.batchSize
	}
	o.Log.Debug("SQL batch INSERT generated statement: ", o.sqlStmt)
	return o.sqlStmt
}
