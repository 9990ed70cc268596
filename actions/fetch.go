package actions

import (
	"os"

	"github.com/imfpipe/imfpipe/components"
	"github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/helper"
	"github.com/imfpipe/imfpipe/imf"
	"github.com/imfpipe/imfpipe/logger"
)

type FetchConfig struct {
	ApiBaseUrl           string
	Dataset              string
	IndicatorCodesCsv    string
	ApiTimeoutSeconds    int
	YearFrom             int
	YearTo               int
	AbortAfterNumRecords int
	LogLevel             string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic     bool
}

// RunFetch dumps flattened indicator rows to STDOUT as CSV instead of loading them.
// It wires the components directly without a pipe definition since no database
// connection is involved.
func RunFetch(cfg *FetchConfig) error {
	log := logger.NewLogger("imfpipe", cfg.LogLevel, cfg.StackDumpOnPanic)
	// Validate switches.
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	client, err := imf.NewClient(&imf.ClientConfig{
		Log:            log,
		BaseUrl:        cfg.ApiBaseUrl,
		Dataset:        cfg.Dataset,
		TimeoutSeconds: cfg.ApiTimeoutSeconds,
	})
	if err != nil {
		return err
	}
	// An empty indicator codes CSV means fetch every indicator in the dataset.
	var indicatorCodes []string
	if cfg.IndicatorCodesCsv != "" {
		indicatorCodes = helper.CsvToStringSliceTrimSpaces(cfg.IndicatorCodesCsv)
	}
	apiChan, _ := components.NewIndicatorInput(&components.IndicatorInputConfig{
		Log:            log,
		Name:           "indicator-input",
		Client:         client,
		IndicatorCodes: indicatorCodes,
	})
	filterChan, _ := components.NewFilterRows(&components.FilterRowsConfig{
		Log:            log,
		Name:           "filter-years",
		InputChan:      apiChan,
		FilterType:     "JsonLogic",
		FilterMetadata: components.FilterMetadata(getYearFilterRule(cfg.YearFrom, cfg.YearTo)),
	})
	outChan, _ := components.NewStdOutPassThrough(&components.StdOutPassThroughConfig{
		Log:    log,
		Name:   "stdout-writer",
		Writer: os.Stdout,
		OutputFields: []string{
			constants.FieldIndicator,
			constants.FieldCountryCode,
			constants.FieldYear,
			constants.FieldValue,
			constants.FieldIngestionTimestamp,
		},
		AbortAfterCount: int64(cfg.AbortAfterNumRecords),
		InputChan:       filterChan,
	})
	// Drain the pass-through output until the stream completes.
	cnt := 0
	for range outChan {
		cnt++
	}
	log.Info("fetched ", cnt, " rows")
	return nil
}
