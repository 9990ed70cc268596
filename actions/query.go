package actions

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imfpipe/imfpipe/helper"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms"
)

type QueryConfig struct {
	Connections      ConnectionLoader
	SourceString     ConnectionObject
	Query            string
	PrintHeader      bool
	DryRun           bool
	LogLevel         string
	StackDumpOnPanic bool
}

// sqlHandler writes query results to stdout as CSV.
type sqlHandler struct {
	printHeader bool
}

func (s *sqlHandler) HandleHeader(i []interface{}) error {
	if !s.printHeader {
		return nil
	}
	w := csv.NewWriter(os.Stdout)
	if err := w.Write(helper.InterfaceToString(i)); err != nil {
		return fmt.Errorf("error outputting SQL header: %v", err)
	}
	w.Flush()
	return nil
}

func (s *sqlHandler) HandleRow(i []interface{}) error {
	w := csv.NewWriter(os.Stdout)
	if err := w.Write(helper.InterfaceToString(i)); err != nil {
		return fmt.Errorf("error outputting SQL row: %v", err)
	}
	w.Flush()
	return nil
}

// RunQuery executes ad hoc SQL against the named connection and prints the
// results as CSV. CTRL-C cancels the running statement.
func RunQuery(cfg *QueryConfig) error {
	if cfg.DryRun {
		fmt.Println(cfg.Query)
		return nil
	}
	log := logger.NewLogger("imfpipe", cfg.LogLevel, cfg.StackDumpOnPanic)
	conn, err := cfg.Connections.LoadConnection(cfg.SourceString.GetConnectionName())
	if err != nil {
		return err
	}
	db, err := rdbms.OpenDbConnection(log, conn)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()
	h := sqlHandler{printHeader: cfg.PrintHeader}
	chanQuit := make(chan os.Signal, 2)
	chanSql := make(chan struct{}, 1)
	signal.Notify(chanQuit, os.Interrupt, syscall.SIGTERM)
	go func() {
		err = rdbms.SqlQuery(ctx, log, db, cfg.Query, &h)
		chanSql <- struct{}{}
	}()
	select {
	case <-chanQuit:
		fmt.Println("\nUser abort. Stopping SQL execution...")
		cancelFn()
		select {
		case <-time.After(5 * time.Second):
			fmt.Println("Timeout waiting for SQL to end - aborted")
		case <-chanSql:
		}
		return nil
	case <-chanSql:
	}
	return err
}
