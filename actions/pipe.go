package actions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/transform"
	"github.com/pkg/errors"
)

type PipeConfig struct {
	TransformFile             string
	Connections               ConnectionLoader
	WithWebService            bool `errorTxt:"with-server" mandatory:"no"`
	LogLevel                  string
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
}

// RunPipeFromFile executes the pipe definition in the configured file,
// either directly or via the REST API when WithWebService is set.
func RunPipeFromFile(pipe *PipeConfig, web *WebServerConfig) error {
	if pipe == nil {
		return fmt.Errorf("nil pointer for ETL config supplied")
	}
	if pipe.TransformFile == "" {
		return fmt.Errorf("supply a YAML or JSON config file name to execute your transform")
	}
	log := logger.NewLogger("imfpipe", pipe.LogLevel, pipe.StackDumpOnPanic)
	if pipe.WithWebService {
		web.StatsDumpFrequencySeconds = pipe.StatsDumpFrequencySeconds
		return launchPipeFromFileWithServer(log, pipe.TransformFile, pipe.Connections, web)
	}
	return launchPipeFromFile(log, pipe.TransformFile, pipe.Connections, pipe.StatsDumpFrequencySeconds)
}

// launchPipeFromFile launches the transform found in transformFileName and
// blocks until it completes.
func launchPipeFromFile(log logger.Logger, transformFileName string, c ConnectionLoader, statsDumpFrequencySeconds int) error {
	t, err := loadTransformFromFile(transformFileName)
	if err != nil {
		return err
	}
	if err := loadConnectionDataIfMissing(c, t); err != nil {
		return err
	}
	// Redundant Marshal TODO: remove this redundant marshal step and consolidate launch code across Pipe and Serve actions.
	b, _ := json.MarshalIndent(t, "", "  ")
	log.Debug("TransformDefinition data: ", string(b))
	ti := transform.NewSafeMapTransformInfo()
	if _, err = transform.LaunchTransformDefinition(log, ti, t, true, statsDumpFrequencySeconds); err != nil {
		return errors.Wrap(err, "unable to unmarshal reference JSON to build the pipe")
	}
	return nil
}

// launchPipeFromFileWithServer starts the web server and POSTs the transform
// file's pipe to it, so the run can be monitored over HTTP. An error is
// returned when the initial POST fails.
func launchPipeFromFileWithServer(log logger.Logger, transformFileName string, c ConnectionLoader, web *WebServerConfig) error {
	t, err := loadTransformFromFile(transformFileName)
	if err != nil {
		return err
	}
	if err := loadConnectionDataIfMissing(c, t); err != nil {
		return err
	}
	// Redundant Marshal TODO: remove this redundant marshal step.
	b, _ := json.MarshalIndent(t, "", "  ")
	log.Debug("TransformDefinition data: ", string(b))
	srv, stopChan, pipes := startServer(log, web)
	url := "http://localhost:" + strconv.Itoa(web.Port) + urlContext4Launch
	log.Debug("posting to url = ", url)
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(b))
	if err != nil {
		log.Panic(err)
	}
	if resp.StatusCode != http.StatusOK {
		stopChan <- "" // kills the web server.
		errMsg := fmt.Sprintf("error launching transform, received HTTP status code %v", resp.StatusCode)
		log.Error(errMsg)
		return errors.New(errMsg)
	}
	log.Info("Launched transform file ", transformFileName)
	return awaitShutdown(log, srv, stopChan, pipes)
}

// loadConnectionDataIfMissing fills in, by logical name, any connection in t
// whose credentials are absent from the pipe definition.
// TODO: parse the whole transform to build a list of connections that we need
//  so we don't need to keep partially populated connections in the json at all.
func loadConnectionDataIfMissing(c ConnectionLoader, t *transform.TransformDefinition) error {
	for connectionName, v := range t.Connections {
		if len(v.Data) == 0 {
			if err := t.Connections.LoadConnection(c, connectionName); err != nil {
				return err
			}
		}
	}
	return nil
}
