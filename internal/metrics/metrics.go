// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス収集のインターフェース。
// サービス層から利用する。
type Recorder interface {
	RecordTransition(direction string)
	RecordTransitionRejected(reason string)
	RecordCertificateIssued(level string)
	RecordCertificateIssueFailure()
	RecordTransitionDuration(d time.Duration)
	RecordBackfillMigrated(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	transitions         *prometheus.CounterVec
	transitionsRejected *prometheus.CounterVec
	certsIssued         *prometheus.CounterVec
	certIssueFailures   prometheus.Counter
	transitionDuration  prometheus.Histogram
	backfillMigrated    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lingua_transitions_total",
			Help: "実行されたレベル遷移の合計数（方向別）",
		}, []string{"direction"}),
		transitionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lingua_transitions_rejected_total",
			Help: "拒否されたレベル遷移の合計数（理由別）",
		}, []string{"reason"}),
		certsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lingua_certificates_issued_total",
			Help: "発行された証明書の合計数（レベル別）",
		}, []string{"level"}),
		certIssueFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lingua_certificate_issue_failures_total",
			Help: "遷移成功後に証明書発行が失敗した合計数",
		}),
		transitionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lingua_transition_duration_seconds",
			Help:    "レベル遷移処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		backfillMigrated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lingua_backfill_migrated_total",
			Help: "バックフィル移行で初期化されたユーザーの合計数",
		}),
	}

	reg.MustRegister(
		c.transitions,
		c.transitionsRejected,
		c.certsIssued,
		c.certIssueFailures,
		c.transitionDuration,
		c.backfillMigrated,
	)

	return c
}

// RecordTransition は実行された遷移を方向別に記録する。
func (c *Collector) RecordTransition(direction string) {
	c.transitions.WithLabelValues(direction).Inc()
}

// RecordTransitionRejected は拒否された遷移を理由別に記録する。
func (c *Collector) RecordTransitionRejected(reason string) {
	c.transitionsRejected.WithLabelValues(reason).Inc()
}

// RecordCertificateIssued は証明書発行をレベル別に記録する。
func (c *Collector) RecordCertificateIssued(level string) {
	c.certsIssued.WithLabelValues(level).Inc()
}

// RecordCertificateIssueFailure は遷移成功後の証明書発行失敗を記録する。
func (c *Collector) RecordCertificateIssueFailure() {
	c.certIssueFailures.Inc()
}

// RecordTransitionDuration は遷移処理のレイテンシを記録する。
func (c *Collector) RecordTransitionDuration(d time.Duration) {
	c.transitionDuration.Observe(d.Seconds())
}

// RecordBackfillMigrated は移行されたユーザー数を記録する。
func (c *Collector) RecordBackfillMigrated(count int) {
	c.backfillMigrated.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ Recorder = (*Collector)(nil)
