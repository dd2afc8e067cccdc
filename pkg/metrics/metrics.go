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

// Package metrics registers the prometheus collectors of the service on the
// default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "collector"

var (
	BytesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bytes_received_total",
		Help:      "Total number of bytes fed to stream decoders",
	})
	Frames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_total",
		Help:      "Total number of verified frames by packet type",
	}, []string{"type"})
	BytesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bytes_discarded_total",
		Help:      "Bytes dropped while searching for a sync pattern",
	})
	VerifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verify_failures_total",
		Help:      "Frames rejected by the length or checksum check",
	})
	Fragments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fragments_total",
		Help:      "Small data frames handed to the reassembler",
	})
	Joined = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "joined_total",
		Help:      "Fragment sets joined into one frame",
	})
	Lost = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lost_total",
		Help:      "Fragment sets evicted by timeout",
	})
	ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "parse_errors_total",
		Help:      "Verified frames the payload decoder could not read",
	})
	BpSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bp_suppressed_total",
		Help:      "Blood pressure frames dropped inside the duplicate window",
	})
	BufferResets = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "buffer_resets_total",
		Help:      "Decoders reset because unframed input exceeded the limit",
	})
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections",
		Help:      "Open collector connections",
	})
	ConsoleForwarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "console_forwarded_total",
		Help:      "Console frames sent to the central station",
	})
	ApiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "REST API requests by route",
	}, []string{"route"})
)
