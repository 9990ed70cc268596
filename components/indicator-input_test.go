package components

import (
	"context"
	"strconv"
	"testing"
	"time"

	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/imf"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stream"
)

// mockImfClient serves canned indicator data without touching the network.
type mockImfClient struct {
	indicators []imf.Indicator
	values     map[string]imf.Values
}

func (m *mockImfClient) Indicators(ctx context.Context) ([]imf.Indicator, error) {
	return m.indicators, nil
}

func (m *mockImfClient) IndicatorValues(ctx context.Context, code string) (imf.Values, error) {
	v, ok := m.values[code]
	if !ok {
		return imf.Values{}, nil
	}
	return v, nil
}

func newMockImfClient() *mockImfClient {
	v1 := 2.8
	v2 := 1.1
	return &mockImfClient{
		indicators: []imf.Indicator{
			{Code: "LUR", Label: "Unemployment rate"},
			{Code: "NGDP_RPCH", Label: "Real GDP growth"},
		},
		values: map[string]imf.Values{
			"NGDP_RPCH": {
				"GBR": {"2024": &v2},
				"USA": {"2024": &v1},
			},
			"LUR": {
				"USA": {"2024": &v1, "2025": nil},
			},
		},
	}
}

func TestNewIndicatorInput(t *testing.T) {
	log := logger.NewLogger("imfpipe", "info", true)
	ingestionTime := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Test 1 - explicit indicator codes.
	log.Info("Test 1 - explicit indicator codes...")
	cfg := &IndicatorInputConfig{
		Log:            log,
		Name:           "test indicator-input",
		Client:         newMockImfClient(),
		IndicatorCodes: []string{"NGDP_RPCH"},
		IngestionTime:  ingestionTime,
	}
	outputChan, _ := NewIndicatorInput(cfg)
	results := make([]stream.Record, 0)
	for rec := range outputChan {
		results = append(results, rec)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 records; got %v", len(results))
	}
	// Countries are emitted in sorted order.
	if got := results[0].GetData(c.FieldCountryCode); got != "GBR" {
		t.Fatalf("expected first country GBR; got %v", got)
	}
	if got := results[1].GetData(c.FieldCountryCode); got != "USA" {
		t.Fatalf("expected second country USA; got %v", got)
	}
	if got := results[0].GetData(c.FieldIndicator); got != "NGDP_RPCH" {
		t.Fatalf("expected indicator NGDP_RPCH; got %v", got)
	}
	if got := results[0].GetData(c.FieldIngestionTimestamp); got != ingestionTime {
		t.Fatalf("expected shared ingestion timestamp %v; got %v", ingestionTime, got)
	}

	// Test 2 - all indicators are fetched when no codes are supplied.
	log.Info("Test 2 - all indicators fetched when no codes supplied...")
	cfg2 := &IndicatorInputConfig{
		Log:           log,
		Name:          "test indicator-input all",
		Client:        newMockImfClient(),
		IngestionTime: ingestionTime,
	}
	outputChan2, _ := NewIndicatorInput(cfg2)
	indicatorsSeen := make(map[string]int)
	for rec := range outputChan2 {
		indicatorsSeen[rec.GetDataAsStringPreserveTimeZone(log, c.FieldIndicator)]++
	}
	if indicatorsSeen["NGDP_RPCH"] != 2 {
		t.Fatalf("expected 2 NGDP_RPCH records; got %v", indicatorsSeen["NGDP_RPCH"])
	}
	if indicatorsSeen["LUR"] != 2 { // includes the null-valued 2025 row.
		t.Fatalf("expected 2 LUR records; got %v", indicatorsSeen["LUR"])
	}

	// Test 3 - shutdown requests are honoured.
	// Supply more rows than the output channel can buffer so the component is
	// still sending when the shutdown request arrives.
	log.Info("Test 3 - shutdown requests are honoured...")
	v := 1.0
	bigValues := imf.Values{}
	for i := 0; i < int(c.ChanSize)+100; i++ {
		country := "C" + strconv.Itoa(i)
		bigValues[country] = map[string]*float64{"2024": &v}
	}
	cfg3 := &IndicatorInputConfig{
		Log:            log,
		Name:           "test indicator-input shutdown",
		Client:         &mockImfClient{values: map[string]imf.Values{"NGDP_RPCH": bigValues}},
		IndicatorCodes: []string{"NGDP_RPCH"},
		IngestionTime:  ingestionTime,
	}
	_, controlChan := NewIndicatorInput(cfg3)
	responseChan := make(chan error, 1)
	controlChan <- ControlAction{Action: Shutdown, ResponseChan: responseChan}
	select {
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for IndicatorInput to shutdown")
	case <-responseChan:
		// continue
	}
}
