package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civicboard_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// UpvoteToggles counts upvote toggles by resulting action.
	UpvoteToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civicboard_upvote_toggles_total",
		Help: "Total upvote toggles by resulting action",
	}, []string{"action"})

	// ImageUploads counts image uploads by result.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civicboard_image_uploads_total",
		Help: "Total image uploads by result",
	}, []string{"result"})

	// ImageUploadBreakerState is 1 for the current state of the upload circuit breaker.
	ImageUploadBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "civicboard_image_upload_breaker_state",
		Help: "Current state of the image upload circuit breaker",
	}, []string{"state"})

	// BanActions counts moderation ban toggles by resulting action.
	BanActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civicboard_ban_actions_total",
		Help: "Total ban toggles by resulting action",
	}, []string{"action"})
)
