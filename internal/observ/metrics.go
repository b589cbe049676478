package observ

import "github.com/prometheus/client_golang/prometheus"

var (
	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "slackbridge",
		Name:      "ws_connections",
		Help:      "Current number of live WebSocket sessions",
	})

	MessagesRelayed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "slackbridge",
		Name:      "messages_relayed_total",
		Help:      "Messages accepted by the dispatcher, by provenance",
	}, []string{"provenance"})

	EchoSuppressed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "slackbridge",
		Name:      "echo_suppressed_total",
		Help:      "External events dropped for carrying a bot or subtype marker",
	})

	BroadcastRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "slackbridge",
		Name:      "broadcast_retries_total",
		Help:      "Broadcast attempts deferred because no transport hub was live",
	})

	BroadcastDrops = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "slackbridge",
		Name:      "broadcast_drops_total",
		Help:      "Broadcasts abandoned after exhausting the retry budget",
	})

	ChannelsProvisioned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "slackbridge",
		Name:      "channels_provisioned_total",
		Help:      "Isolated Slack channels created on first message",
	})

	FallbackRoutes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "slackbridge",
		Name:      "fallback_routes_total",
		Help:      "Messages routed to the shared fallback channel",
	})

	SlackRPCFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "slackbridge",
		Name:      "slack_rpc_failures_total",
		Help:      "Failed Slack Web API calls, by call name",
	}, []string{"call"})
)

func init() {
	prometheus.MustRegister(
		Connections,
		MessagesRelayed,
		EchoSuppressed,
		BroadcastRetries,
		BroadcastDrops,
		ChannelsProvisioned,
		FallbackRoutes,
		SlackRPCFailures,
	)
}
