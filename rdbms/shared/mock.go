package shared

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/imfpipe/imfpipe/logger"
)

// Mock connections for tests record every SQL statement sent to Exec or Query
// on a channel so assertions can be made about the statements and their order.
// They are built on a fake database/sql driver so the real DbConnection code
// path is exercised.

var mockDriverCount int64

// NewMockConnectionWithMockTx returns a Connector whose statements are
// recorded to the returned channel.  Queries return no rows.
func NewMockConnectionWithMockTx(log logger.Logger, dbType string) (Connector, chan string) {
	return NewMockConnectionWithMockTxAndResults(log, dbType, nil, nil)
}

// NewMockConnectionWithMockTxAndResults returns a Connector whose statements
// are recorded to the returned channel and whose queries all return the
// supplied columns and rows.
func NewMockConnectionWithMockTxAndResults(log logger.Logger, dbType string, cols []string, rows [][]driver.Value) (Connector, chan string) {
	recChan := make(chan string, 1000)
	d := &mockDriver{conn: &mockConn{recChan: recChan, queryCols: cols, queryRows: rows}}
	name := fmt.Sprintf("imfpipe-mock-%v", atomic.AddInt64(&mockDriverCount, 1))
	sql.Register(name, d)
	db, err := sql.Open(name, "")
	if err != nil { // sql.Open of a registered driver cannot fail but be safe.
		log.Panic("unable to open mock connection: ", err)
	}
	return &DbConnection{Db: db, Dml: &DmlGeneratorTxtBatch{}, DbType: dbType}, recChan
}

type mockDriver struct {
	conn *mockConn
}

func (d *mockDriver) Open(name string) (driver.Conn, error) {
	return d.conn, nil
}

type mockConn struct {
	recChan   chan string
	queryCols []string
	queryRows [][]driver.Value
}

func (c *mockConn) Prepare(query string) (driver.Stmt, error) {
	return &mockStmt{conn: c, query: query}, nil
}

func (c *mockConn) Close() error {
	return nil
}

func (c *mockConn) Begin() (driver.Tx, error) {
	return &mockTx{}, nil
}

func (c *mockConn) record(query string) {
	select {
	case c.recChan <- query:
	default: // drop statements once the recorder is full rather than deadlock a test.
	}
}

type mockTx struct{}

func (t *mockTx) Commit() error   { return nil }
func (t *mockTx) Rollback() error { return nil }

type mockStmt struct {
	conn  *mockConn
	query string
}

func (s *mockStmt) Close() error {
	return nil
}

func (s *mockStmt) NumInput() int {
	return -1 // disable the driver's arg count check since the SQL is not parsed.
}

func (s *mockStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.conn.record(s.query)
	return driver.RowsAffected(int64(len(args))), nil
}

func (s *mockStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.conn.record(s.query)
	return &mockRows{cols: s.conn.queryCols, rows: s.conn.queryRows}, nil
}

type mockRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *mockRows) Columns() []string {
	return r.cols
}

func (r *mockRows) Close() error {
	return nil
}

func (r *mockRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
