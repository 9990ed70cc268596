package actions

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/imfpipe/imfpipe/helper"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/transform"
	"github.com/pkg/errors"
)

const (
	urlContext4Launch = "/launch"
)

type WebServerConfig struct {
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	Scheme                    string `errorTxt:"scheme" mandatory:"no"`
	Addr                      net.IP `errorTxt:"address" mandatory:"no"`
	Port                      int    `errorTxt:"log level" mandatory:"no"`
	Connections               ConnectionLoader
	StatsDumpFrequencySeconds int
	StackDumpOnPanic          bool
}

// RunWebServer serves the pipe launch/status/stop REST API and blocks until
// the server is stopped via /stop or SIGINT.
func RunWebServer(web *WebServerConfig) error {
	if web == nil {
		return errors.New("nil pointer to web server config supplied")
	}
	log := logger.NewLogger("imfpipe", web.LogLevel, web.StackDumpOnPanic)
	if err := helper.ValidateStructIsPopulated(web); err != nil {
		return err
	}
	srv, stopChan, pipes := startServer(log, web)
	return awaitShutdown(log, srv, stopChan, pipes)
}

// startServer starts the HTTP server without blocking and returns the server,
// the channel that stops it, and the shared registry of running transforms.
func startServer(log logger.Logger, web *WebServerConfig) (*http.Server, chan string, *transform.SafeMapTransformInfo) {
	stopChan := make(chan string, 1)
	pipes := transform.NewSafeMapTransformInfo()
	router := mux.NewRouter()
	router.HandleFunc("/stop", GetHandlerStopServer(log, stopChan))
	router.Path("/health").HandlerFunc(GetHandlerHealth(log))
	router.Path("/pipes").HandlerFunc(GetHandlerPipeList(log, pipes))
	router.Path("/pipes/{pipeId}/stats").HandlerFunc(GetHandlerPipeStats(log, pipes))
	router.Path("/pipes/{pipeId}/status").HandlerFunc(GetHandlerPipeStatus(log, pipes))
	router.Path("/pipes/{pipeId}/stop").HandlerFunc(GetHandlerPipeStop(log, pipes))
	router.Path(urlContext4Launch).Headers("Content-Type", "application/json").HandlerFunc(
		GetHandlerPipeLaunch(log, pipes, web.Connections, web.StatsDumpFrequencySeconds))
	srv := &http.Server{
		Addr:    fmt.Sprintf("%v:%v", web.Addr, web.Port),
		Handler: router,
		// Timeouts avoid Slowloris style connection exhaustion.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		err := srv.ListenAndServe()
		if err == http.ErrServerClosed {
			log.Info(err)
			return
		}
		if err != nil {
			log.Panic(err)
		}
	}()
	log.Info(fmt.Sprintf("Listening on %v://%v:%v", strings.ToLower(web.Scheme), web.Addr, web.Port))
	return srv, stopChan, pipes
}

// awaitShutdown blocks until a stop request or SIGINT arrives, then stops all
// running transforms and shuts the HTTP server down gracefully.
func awaitShutdown(log logger.Logger, srv *http.Server, stopChan chan string, pipes *transform.SafeMapTransformInfo) error {
	// SIGKILL, SIGQUIT and SIGTERM are deliberately not caught.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	select {
	case <-stopChan:
	case <-sigChan:
	}
	fmt.Println() // newline after ^C for a clean CLI look.
	log.Info("Shutting down web server...")
	// Stop running transforms first.
	// TODO: cleanup the way shutdown works since there is no single mutex wrapping t.ChanStop below
	// TODO: the channel could be closed by the time we get there!
	// TODO: we should use a response from the shutdown action instead of waiting for timeout.
	// TODO: get a lock to prevent new transforms being launched at the point when someone shuts down the server.
	pipes.RLock()
	for _, pipe := range pipes.Internal {
		if !pipe.Status.TransformIsFinished() {
			pipe.ChanStop <- nil // stop without an error.
		}
	}
	pipes.RUnlock()
	<-time.After(3 * time.Second) // TODO: remove this hack!
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// Shutdown returns once in-flight requests finish or the deadline hits.
	return srv.Shutdown(ctx)
}
