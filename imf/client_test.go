package imf

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/imfpipe/imfpipe/logger"
)

var testLog = logger.NewLogger("imfpipe", "error", true)

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/indicators", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"indicators": {
			"NGDP_RPCH": {"label": "Real GDP growth", "description": "Annual percent change", "source": "WEO", "unit": "Percent", "dataset": "WEO"},
			"LUR": {"label": "Unemployment rate", "description": "Percent", "source": "WEO", "unit": "Percent", "dataset": "WEO"},
			"FM_POP": {"label": "Population", "description": "", "source": "FM", "unit": "Millions", "dataset": "FM"}
		}}`)
	})
	mux.HandleFunc("/NGDP_RPCH", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"values": {"NGDP_RPCH": {"USA": {"2023": 2.5, "2024": null}, "GBR": {"2023": 0.3}}}}`)
	})
	mux.HandleFunc("/EMPTY", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/BROKEN", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return httptest.NewServer(mux)
}

func newTestClient(t *testing.T, baseUrl string, dataset string) *HttpClient {
	c, err := NewClient(&ClientConfig{Log: testLog, BaseUrl: baseUrl, Dataset: dataset})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestIndicatorsFiltersDatasetAndSorts(t *testing.T) {
	s := newTestServer(t)
	defer s.Close()
	c := newTestClient(t, s.URL, "WEO")
	got, err := c.Indicators(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatal("expected 2 WEO indicators; got ", len(got))
	}
	if got[0].Code != "LUR" || got[1].Code != "NGDP_RPCH" {
		t.Fatalf("expected sorted codes LUR, NGDP_RPCH; got %v, %v", got[0].Code, got[1].Code)
	}
	if got[1].Label != "Real GDP growth" {
		t.Error("unexpected label: ", got[1].Label)
	}
}

func TestIndicatorsNoDatasetFilter(t *testing.T) {
	s := newTestServer(t)
	defer s.Close()
	// A blank dataset admits indicators from every dataset.
	c := newTestClient(t, s.URL, "")
	got, err := c.Indicators(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatal("expected all 3 indicators with no dataset filter; got ", len(got))
	}
	if got[0].Code != "FM_POP" {
		t.Fatalf("expected FM_POP to sort first; got %v", got[0].Code)
	}
}

func TestIndicatorValues(t *testing.T) {
	s := newTestServer(t)
	defer s.Close()
	c := newTestClient(t, s.URL, "WEO")
	got, err := c.IndicatorValues(context.Background(), "NGDP_RPCH")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatal("expected values for 2 countries; got ", len(got))
	}
	if v := got["USA"]["2023"]; v == nil || *v != 2.5 {
		t.Error("expected USA 2023 = 2.5")
	}
	if v := got["USA"]["2024"]; v != nil {
		t.Error("expected USA 2024 to be null")
	}
}

func TestIndicatorValuesMissingCode(t *testing.T) {
	s := newTestServer(t)
	defer s.Close()
	c := newTestClient(t, s.URL, "WEO")
	got, err := c.IndicatorValues(context.Background(), "EMPTY")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatal("expected empty values for a code missing from the response")
	}
}

func TestIndicatorValuesBadStatus(t *testing.T) {
	s := newTestServer(t)
	defer s.Close()
	c := newTestClient(t, s.URL, "WEO")
	_, err := c.IndicatorValues(context.Background(), "BROKEN")
	if err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}
