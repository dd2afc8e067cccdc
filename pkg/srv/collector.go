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
	"errors"
	"io"
	"net"
	"sync"

	"github.com/vitalwave/go-collector/pkg/collector"
	"github.com/vitalwave/go-collector/pkg/config"
	"github.com/vitalwave/go-collector/pkg/log"
	"github.com/vitalwave/go-collector/pkg/metrics"
)

const readBufferSize = 4096

// CollectorServer accepts TCP connections from collectors. Every
// connection gets its own stream decoder, all of them share one Parser and
// thus one battery cache.
type CollectorServer struct {
	context.Context
	*config.CollectorConfig
	Parser   *collector.Parser
	listener collector.Listener

	mu sync.Mutex
	ln net.Listener
}

func NewCollectorServer(ctx context.Context, cfg *config.CollectorConfig, parser *collector.Parser,
	listener collector.Listener) *CollectorServer {
	log.Debug("Initializing collector server with address: %s port: %d", cfg.Address, cfg.Port)
	return &CollectorServer{
		Context:         ctx,
		CollectorConfig: cfg,
		Parser:          parser,
		listener:        listener,
	}
}

// Addr returns the listening address once Run or Serve started.
func (s *CollectorServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *CollectorServer) Run() error {
	ln, err := net.Listen("tcp", s.Endpoint())
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until the context is done or accepting
// fails.
func (s *CollectorServer) Serve(ln net.Listener) error {
	log.Info("Starting collector server: %s", ln.Addr())
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	defer ln.Close()

	errChan := make(chan error, 1)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				errChan <- err
				return
			}
			go s.handle(conn)
		}
	}()

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err := <-errChan:
		return err
	}
}

func (s *CollectorServer) newDecoder() *collector.Decoder {
	opts := []collector.Option{collector.WithParser(s.Parser)}
	if timeout := s.JointTimeout(); timeout > 0 {
		opts = append(opts, collector.WithJointTimeout(timeout))
	}
	// a zero window in the file means the default, a negative one disables
	if s.BpWindowMs != 0 {
		opts = append(opts, collector.WithBpWindow(s.BpWindow()))
	}
	return collector.NewDecoder(s.listener, opts...)
}

func (s *CollectorServer) handle(conn net.Conn) {
	log.Info("Collector connected: %s", conn.RemoteAddr())
	metrics.Connections.Inc()
	done := make(chan struct{})
	defer func() {
		close(done)
		conn.Close()
		metrics.Connections.Dec()
		log.Info("Collector disconnected: %s", conn.RemoteAddr())
	}()
	go func() {
		select {
		case <-s.Context.Done():
			conn.Close()
		case <-done:
		}
	}()

	d := s.newDecoder()
	buffer := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buffer)
		if n > 0 {
			d.Resolve(buffer[:n])
			if s.MaxBuffered > 0 && d.Buffered() > s.MaxBuffered {
				log.Warning("Connection %s buffered %d bytes without a frame, resetting", conn.RemoteAddr(), d.Buffered())
				metrics.BufferResets.Inc()
				d.Reset()
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Warning("Error while reading from %s: %s", conn.RemoteAddr(), err)
			}
			return
		}
	}
}
