// Prometheus collectors for the websocket transport. Registered once at
// package load, mirroring the HTTP middleware metrics.
package ws

import "github.com/prometheus/client_golang/prometheus"

var (
	// metricRoomConnections gauges sockets currently registered in rooms.
	metricRoomConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_room_connections",
		Help: "Current number of websocket connections registered in rooms.",
	})

	// metricFramesBroadcast counts frames accepted into per-client send
	// queues (fan-out volume, not wire-level delivery).
	metricFramesBroadcast = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_frames_broadcast_total",
		Help: "Total frames queued to room members by broadcast and direct sends.",
	})

	// metricMessagesPersisted counts chat messages accepted and saved.
	metricMessagesPersisted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_messages_persisted_total",
		Help: "Total chat messages validated and persisted via the archive.",
	})

	// metricAuthRejections counts failed upgrade attempts by reason.
	metricAuthRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_auth_rejections_total",
		Help: "Total websocket upgrade attempts rejected during authentication.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(
		metricRoomConnections,
		metricFramesBroadcast,
		metricMessagesPersisted,
		metricAuthRejections,
	)
}
