package actions

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/transform"
)

type WebServerResponse uint32

const (
	Okay WebServerResponse = iota + 1
	Error
)

func (w WebServerResponse) MarshalJSON() ([]byte, error) {
	switch w {
	case Okay:
		return json.Marshal("ok")
	case Error:
		return json.Marshal("error")
	}
	return nil, fmt.Errorf("unhandled WebServerResponse value in MarshalJSON() conversion")
}

type ResponseSimple struct {
	ServerStatus WebServerResponse `json:"status"`
}

type ResponsePipeList struct {
	Status WebServerResponse `json:"status"`
	Pipes  []PipeListItem    `json:"pipes"`
}

type PipeListItem struct {
	PipeId          string           `json:"pipeId"`
	PipeDescription string           `json:"pipeDescription"`
	PipeStatus      transform.Status `json:"pipeStatus"`
}

type ResponsePipeStats struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message"`
	Stats   interface{}       `json:"pipeStats"`
}

type ResponsePipeStatus struct {
	Status     WebServerResponse         `json:"status"`
	Message    string                    `json:"message"`
	PipeStatus transform.TransformStatus `json:"pipeStatus"`
}

type ResponsePipeStop struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message"`
	PipeId  string            `json:"pipeId"`
}

type ResponsePipeLaunch struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message"`
	PipeId  string            `json:"pipeId"`
}

func GetHandlerHealth(log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		writeJSON(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

func GetHandlerStopServer(log logger.Logger, chanStop chan string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		chanStop <- "stop"
		log.Info("Stop signal sent")
		writeJSON(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

// GetHandlerPipeLaunch returns the POST handler that accepts a pipe
// definition as the request body, fills in connection details from the
// config file when the definition omits them, and launches it without
// blocking.
func GetHandlerPipeLaunch(log logger.Logger, pipes *transform.SafeMapTransformInfo, connLoader ConnectionLoader, statsDumpFrequencySeconds int) http.HandlerFunc {
	fail := func(w http.ResponseWriter, err error, message string) {
		log.Error(err)
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(log, w, ResponsePipeLaunch{Status: Error, Message: fmt.Sprintf("%v: %v", message, err)})
	}
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := ioutil.ReadAll(r.Body)
		def := transform.TransformDefinition{}
		if err := json.Unmarshal(body, &def); err != nil {
			fail(w, err, "error unmarshalling JSON")
			return
		}
		if err := loadConnectionDataIfMissing(connLoader, &def); err != nil {
			fail(w, err, "error loading connection details")
			return
		}
		guid, err := transform.LaunchTransformDefinition(log, pipes, &def, false, statsDumpFrequencySeconds)
		if err != nil {
			fail(w, err, "invalid JSON transform definition supplied")
			return
		}
		w.WriteHeader(http.StatusOK)
		writeJSON(log, w, ResponsePipeLaunch{Status: Okay, Message: "transform launched", PipeId: guid})
	}
}

func GetHandlerPipeStop(log logger.Logger, pipes *transform.SafeMapTransformInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["pipeId"]
		pipe, found := pipes.Load(id)
		if !found {
			w.WriteHeader(http.StatusBadRequest)
			log.Info("HTTP request to stop transform ", id, " that doesn't exist.")
			writeJSON(log, w, ResponsePipeStop{Status: Error, Message: "transform does not exist", PipeId: id})
			return
		}
		w.WriteHeader(http.StatusOK)
		if pipe.Status.TransformIsFinished() {
			log.Info("HTTP request to stop transform ", id, " has already finished.")
			writeJSON(log, w, ResponsePipeStop{Status: Error, Message: "transform already ended", PipeId: id})
			return
		}
		log.Info("Stopping transform ", id)
		pipe.ChanStop <- nil // a nil error stops the transform cleanly.
		writeJSON(log, w, ResponsePipeStop{Status: Okay, Message: "shutting down", PipeId: id})
	}
}

func GetHandlerPipeList(log logger.Logger, pipes *transform.SafeMapTransformInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := make([]PipeListItem, 0, len(pipes.Internal))
		pipes.Lock()
		for id, info := range pipes.Internal {
			items = append(items, PipeListItem{
				PipeId:          id,
				PipeDescription: info.Transform.Description,
				PipeStatus:      info.Status.Status,
			})
		}
		pipes.Unlock()
		w.WriteHeader(http.StatusOK)
		writeJSON(log, w, ResponsePipeList{Status: Okay, Pipes: items})
	}
}

func GetHandlerPipeStats(log logger.Logger, pipes *transform.SafeMapTransformInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["pipeId"]
		pipe, found := pipes.Load(id)
		if !found {
			w.WriteHeader(http.StatusBadRequest)
			log.Info("HTTP request to fetch stats for transform ", id, " that doesn't exist.")
			writeJSON(log, w, ResponsePipeStats{Status: Error, Message: fmt.Sprintf("transform %v does not exist", id)})
			return
		}
		w.WriteHeader(http.StatusOK)
		writeJSON(log, w, ResponsePipeStats{Status: Okay, Stats: pipe.Stats.GetStats()})
	}
}

func GetHandlerPipeStatus(log logger.Logger, pipes *transform.SafeMapTransformInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["pipeId"]
		pipe, found := pipes.Load(id)
		if !found {
			w.WriteHeader(http.StatusBadRequest)
			log.Info("HTTP request status of transform ", id, " that doesn't exist.")
			writeJSON(log, w, ResponsePipeStatus{Status: Error, Message: fmt.Sprintf("transform %v does not exist", id)})
			return
		}
		w.WriteHeader(http.StatusOK)
		writeJSON(log, w, ResponsePipeStatus{Status: Okay, PipeStatus: pipe.Status})
	}
}

// writeJSON renders i to w as indented JSON.
func writeJSON(log logger.Logger, w http.ResponseWriter, i interface{}) {
	j, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		log.Panic(err)
	}
	if _, err = fmt.Fprint(w, string(j)); err != nil {
		log.Panic(err)
	}
}
