package rdbms

import (
	"context"
	"fmt"

	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms/shared"
)

// SqlQuery runs sqltext against db and streams the header then each row to
// the supplied SqlResultHandler. Iteration stops when ctx is cancelled.
func SqlQuery(ctx context.Context, log logger.Logger, db shared.Connector, sqltext string, i shared.SqlResultHandler) error {
	rows, err := db.QueryContext(ctx, sqltext)
	if err != nil {
		return fmt.Errorf("error during database query using SQL: '%v': %w", sqltext, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("error fetching column types: %w", err)
	}
	numCols := len(colTypes)
	// Scan into a fixed set of interface pointers since the column set is
	// only known at runtime.
	scanPtrs := make([]interface{}, numCols)
	scanVals := make([]interface{}, numCols)
	for idx := 0; idx < numCols; idx++ {
		scanPtrs[idx] = &scanVals[idx]
	}
	header := make([]interface{}, numCols)
	for idx := range colTypes {
		header[idx] = colTypes[idx].Name()
	}
	if err := i.HandleHeader(header); err != nil {
		return err
	}
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := rows.Scan(scanPtrs...); err != nil {
			return fmt.Errorf("error scanning row: %v", err)
		}
		// Copy out of the scan buffer so the handler may keep the row.
		row := make([]interface{}, numCols)
		copy(row, scanVals)
		if err := i.HandleRow(row); err != nil {
			return err
		}
	}
	return nil
}
