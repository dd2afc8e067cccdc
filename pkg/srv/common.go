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

	"github.com/vitalwave/go-collector/pkg/collector"
	"github.com/vitalwave/go-collector/pkg/config"
	"github.com/vitalwave/go-collector/pkg/log"
	"github.com/vitalwave/go-collector/pkg/store"
)

// Service wires the collector server, the state store, the API and the
// optional console forwarder of one config.
type Service struct {
	context.Context
	*config.Config
	State     *store.State
	Parser    *collector.Parser
	Collector *CollectorServer
	Api       *ApiServer
	Forwarder *ConsoleForwarder
	Capture   *CaptureWriter
}

func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	state, err := store.NewState(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	parser := collector.NewParser()
	state.Battery = parser.Battery

	s := &Service{
		Context: ctx,
		Config:  cfg,
		State:   state,
		Parser:  parser,
	}
	listeners := collector.MultiListener{state}
	if cfg.Console != nil && cfg.Console.Enabled {
		s.Forwarder, err = NewConsoleForwarder(cfg)
		if err != nil {
			state.Close()
			return nil, err
		}
		listeners = append(listeners, s.Forwarder)
	}

	if cfg.CaptureFile != "" {
		s.Capture, err = NewCaptureWriter(cfg.CaptureFile)
		if err != nil {
			s.Close()
			return nil, err
		}
		listeners = append(listeners, s.Capture)
	}

	s.Api, err = NewApiServer(ctx, cfg, state)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Api.Battery = parser.Battery
	s.Collector = NewCollectorServer(ctx, cfg.CollectorConfig, parser, listeners)
	return s, nil
}

// Run blocks until the context is done or one of the servers fails.
func (s *Service) Run() error {
	errChan := make(chan error, 2)
	go func() {
		errChan <- s.Collector.Run()
	}()
	go func() {
		errChan <- s.Api.Run()
	}()

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err := <-errChan:
		log.Error("Server stopped: %s", err)
		return err
	}
}

func (s *Service) Close() {
	if s.Forwarder != nil {
		s.Forwarder.Close()
	}
	if s.Capture != nil {
		s.Capture.Close()
	}
	s.State.Close()
}
