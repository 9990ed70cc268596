package shared

import (
	"context"
	"database/sql"
)

// DbConnection is a wrapper around Go native sql.DB.
// It also adds the DmlGenerator interface for use in components that output records to a database.
type DbConnection struct {
	Db     *sql.DB
	Dml    DmlGenerator
	DbType string
}

// Connector:

func (c *DbConnection) Begin() (Transacter, error) {
	tx, err := c.Db.Begin()
	return &DbTx{tx: tx}, err
}

func (c *DbConnection) Exec(query string, args ...interface{}) (Result, error) {
	return c.ExecContext(context.Background(), query, args...)
}

func (c *DbConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return c.Db.ExecContext(ctx, query, args...)
}

func (c *DbConnection) Query(query string, args ...interface{}) (*DbRows, error) {
	return c.QueryContext(context.Background(), query, args...)
}

func (c *DbConnection) QueryContext(ctx context.Context, query string, args ...interface{}) (*DbRows, error) {
	r, err := c.Db.QueryContext(ctx, query, args...)
	return &DbRows{rows: r}, err
}

func (c *DbConnection) Close() {
	_ = c.Db.Close()
}

func (c *DbConnection) GetDmlGenerator() DmlGenerator {
	return c.Dml
}

func (c *DbConnection) GetType() string {
	return c.DbType
}

// Transacter:

type DbTx struct {
	tx *sql.Tx
}

func (t *DbTx) Prepare(query string) (StatementBatch, error) {
	return t.PrepareContext(context.Background(), query)
}

func (t *DbTx) PrepareContext(ctx context.Context, query string) (StatementBatch, error) {
	s, err := t.tx.PrepareContext(ctx, query)
	return &DbStmt{stmt: s}, err
}

func (t *DbTx) Exec(query string, args ...interface{}) (Result, error) {
	return t.ExecContext(context.Background(), query, args...)
}

func (t *DbTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *DbTx) Commit() error {
	return t.tx.Commit()
}

func (t *DbTx) Rollback() error {
	return t.tx.Rollback()
}

// Statement:

type DbStmt struct {
	stmt *sql.Stmt
}

func (s *DbStmt) Close() error {
	return s.stmt.Close()
}

func (s *DbStmt) Exec(args ...interface{}) (Result, error) {
	return s.ExecContext(context.Background(), args...)
}

func (s *DbStmt) ExecContext(ctx context.Context, args ...interface{}) (Result, error) {
	return s.stmt.ExecContext(ctx, args...)
}

func (s *DbStmt) Query(args ...interface{}) (*DbRows, error) {
	return s.QueryContext(context.Background(), args...)
}

func (s *DbStmt) QueryContext(ctx context.Context, args ...interface{}) (*DbRows, error) {
	r, err := s.stmt.QueryContext(ctx, args...)
	return &DbRows{rows: r}, err
}

// Rows:

type DbRows struct {
	rows *sql.Rows
}

func (r *DbRows) Close() error {
	return r.rows.Close()
}

func (r *DbRows) Columns() ([]string, error) {
	return r.rows.Columns()
}

func (r *DbRows) ColumnTypes() ([]*sql.ColumnType, error) {
	return r.rows.ColumnTypes()
}

func (r *DbRows) Err() error {
	return r.rows.Err()
}

func (r *DbRows) Next() bool {
	return r.rows.Next()
}

func (r *DbRows) NextResultSet() bool {
	return r.rows.NextResultSet()
}

func (r *DbRows) Scan(dest ...interface{}) error {
	return r.rows.Scan(dest...)
}
