/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package srv

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitalwave/go-collector/pkg/collector"
	"github.com/vitalwave/go-collector/pkg/config"
	"github.com/vitalwave/go-collector/pkg/console"
	"github.com/vitalwave/go-collector/pkg/log"
	"github.com/vitalwave/go-collector/pkg/metrics"
	"github.com/vitalwave/go-collector/pkg/numeric"
	"github.com/vitalwave/go-collector/pkg/store"
)

//go:embed swagger.json
var swaggerJSON []byte

// ConsoleFrame is a transcoded record rendered as hex.
type ConsoleFrame struct {
	DeviceID string `json:"deviceId"`
	Hex      string `json:"hex"`
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	state *store.State
	// Battery, when set, answers battery requests with live levels
	Battery *collector.BatteryCache
	spec    *loads.Document
}

func NewApiServer(ctx context.Context, cfg *config.Config, state *store.State) (*ApiServer, error) {
	log.Info("Initializing API server with address: %s port: %d", cfg.Api.Address, cfg.Api.Port)
	spec, err := loads.Analyzed(swaggerJSON, "")
	if err != nil {
		return nil, err
	}
	s := &ApiServer{
		Context: ctx,
		Config:  cfg,
		state:   state,
		spec:    spec,
	}
	s.configureRouter()
	return s, nil
}

// Handler wraps the router with panic recovery and an access log.
func (s *ApiServer) Handler() http.Handler {
	recovery := handlers.RecoveryHandler(handlers.PrintRecoveryStack(log.Level() >= log.DebugLevel))
	return handlers.LoggingHandler(log.Writer(), recovery(s.Router))
}

func (s *ApiServer) Run() error {
	log.Info("Starting API server: %s", s.Api.Endpoint())
	httpServer := &http.Server{
		Handler: s.Handler(),
		Addr:    s.Api.Endpoint(),
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case <-s.Context.Done():
		httpServer.Close()
		return s.Context.Err()
	case err := <-errChan:
		return err
	}
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	s.Router.Use(countRequests)
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	subRouter.HandleFunc("/devices", s.handleDevices()).Methods("GET")
	subRouter.HandleFunc("/devices/{id}", s.handlePacket()).Methods("GET")
	subRouter.HandleFunc("/devices/{id}/bp", s.handleBp()).Methods("GET")
	subRouter.HandleFunc("/devices/{id}/battery", s.handleBattery()).Methods("GET")
	subRouter.HandleFunc("/devices/{id}/console", s.handleConsole()).Methods("GET")
	s.Router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.Router.HandleFunc("/swagger.json", s.handleSwagger()).Methods("GET")
	s.Router.Handle("/docs", middleware.Redoc(middleware.RedocOpts{
		Path:    "docs",
		SpecURL: "/swagger.json",
		Title:   "go-collector API",
	}, http.NotFoundHandler())).Methods("GET")
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				metrics.ApiRequests.WithLabelValues(tpl).Inc()
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while writing response: %s", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var nf store.ErrNotFound
	if errors.As(err, &nf) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *ApiServer) handleDevices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling devices request")
		devices, err := s.state.Devices()
		if err != nil {
			writeError(w, err)
			return
		}
		if devices == nil {
			devices = []store.Device{}
		}
		writeJSON(w, devices)
	}
}

func (s *ApiServer) handlePacket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hp, err := s.state.Packet(mux.Vars(r)["id"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, hp)
	}
}

func (s *ApiServer) handleBp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bp, err := s.state.Bp(mux.Vars(r)["id"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, bp)
	}
}

func (s *ApiServer) handleBattery() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if s.Battery != nil {
			for _, d := range s.Battery.Devices() {
				if d == id {
					writeJSON(w, s.Battery.Levels(id))
					return
				}
			}
		}
		levels, err := s.state.BatteryLevels(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, levels)
	}
}

func (s *ApiServer) handleConsole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		hp, err := s.state.Packet(id)
		if err != nil {
			writeError(w, err)
			return
		}
		bp, err := s.state.Bp(id)
		if err != nil && !errors.As(err, &store.ErrNotFound{}) {
			writeError(w, err)
			return
		}
		frame := console.Convert(consoleRecord(s.Config, hp), bp)
		writeJSON(w, ConsoleFrame{DeviceID: id, Hex: numeric.BytesToHex(frame)})
	}
}

func (s *ApiServer) handleSwagger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(s.spec.Raw())
	}
}
