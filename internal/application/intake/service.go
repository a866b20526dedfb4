// Package intake processes inbound webhook deliveries: signature
// verification, deduplication, mapping to pipeline jobs.
package intake

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/santabrisa/backend/internal/application/pipeline"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/webhook"
	"github.com/santabrisa/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Outcome tells the HTTP layer how to answer a webhook delivery
type Outcome string

const (
	// OutcomeAccepted means the delivery was recorded and its jobs enqueued
	OutcomeAccepted Outcome = "accepted"
	// OutcomeDuplicate means the delivery was already processed earlier
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeRejected means the signature did not verify
	OutcomeRejected Outcome = "rejected"
	// OutcomeSkipped means the payload was unusable; answering success
	// stops the platform from redelivering what cannot be repaired
	OutcomeSkipped Outcome = "skipped"
)

// Config holds the per-platform webhook secrets
type Config struct {
	ShopifySecret   string
	SendcloudSecret string
}

// Delivery is one inbound webhook delivery as received at the HTTP edge.
// RawBody carries the exact bytes as transmitted; the signature is computed
// over those bytes and any re-serialization breaks verification.
type Delivery struct {
	EventID   string // the platform's delivery/event id, when it sends one
	Topic     string
	Shop      string
	Signature string
	RawBody   []byte
}

// Service runs the intake sequence: verify, dedup guard, ledger record,
// map, enqueue, mark processed. The ledger is the source of truth for
// dedup; the cache guard only short-circuits redeliveries cheaply.
type Service struct {
	config   Config
	ledger   webhook.EventRepository
	guard    shared.EventGuard
	enqueuer *pipeline.Enqueuer
	metrics  *telemetry.PipelineMetrics
	logger   *zap.Logger
}

// Option is a functional option for configuring the service
type Option func(*Service)

// WithMetrics attaches webhook metrics recording
func WithMetrics(m *telemetry.PipelineMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a new intake service.
func NewService(
	config Config,
	ledger webhook.EventRepository,
	guard shared.EventGuard,
	enqueuer *pipeline.Enqueuer,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		config:   config,
		ledger:   ledger,
		guard:    guard,
		enqueuer: enqueuer,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessShopify handles an e-commerce order webhook. The order payload is
// mapped and handed to the upsert job; processing stays out of the request
// path entirely.
func (s *Service) ProcessShopify(ctx context.Context, d Delivery) (Outcome, error) {
	if !webhook.Verify(d.RawBody, d.Signature, s.config.ShopifySecret) {
		s.recordRejected(ctx, webhook.SourceShopify)
		return OutcomeRejected, nil
	}
	if s.metrics != nil {
		s.metrics.RecordWebhookReceived(ctx, string(webhook.SourceShopify), d.Topic)
	}

	var payload shopifyOrderWebhook
	if err := json.Unmarshal(d.RawBody, &payload); err != nil || payload.ID == 0 {
		return s.skipUnusable(ctx, webhook.SourceShopify, d, fmt.Sprintf("unparsable order payload: %v", err))
	}
	externalID := d.EventID
	if externalID == "" {
		externalID = fmt.Sprintf("%s:%d", d.Topic, payload.ID)
	}

	dup, event, err := s.record(ctx, webhook.SourceShopify, externalID, d)
	if err != nil {
		return "", err
	}
	if dup {
		return OutcomeDuplicate, nil
	}

	orderID := strconv.FormatInt(payload.ID, 10)
	job, err := s.enqueuer.Enqueue(ctx, queue.JobKindUpsertInboundOrder,
		payload.toJobPayload(d.Shop),
		queue.WithCorrelationID(webhook.ExternalID(webhook.SourceShopify, orderID)),
	)
	if err != nil {
		// Leave the ledger entry pending; the platform redelivers and the
		// pending entry is retried.
		return "", err
	}

	event.MarkProcessed(webhook.EventStatusOK, job.ID.String(), "")
	if err := s.ledger.Update(ctx, event); err != nil {
		return "", err
	}

	s.logger.Info("shopify webhook accepted",
		zap.String("topic", d.Topic),
		zap.String("external_order_id", orderID),
		zap.String("job_id", job.ID.String()),
	)
	return OutcomeAccepted, nil
}

// ProcessSendcloud handles a carrier parcel-status webhook. Carrier-side
// state is pulled rather than trusted from the payload: the delivery only
// nudges a reconciliation run for the affected window.
func (s *Service) ProcessSendcloud(ctx context.Context, d Delivery) (Outcome, error) {
	if !webhook.Verify(d.RawBody, d.Signature, s.config.SendcloudSecret) {
		s.recordRejected(ctx, webhook.SourceSendcloud)
		return OutcomeRejected, nil
	}
	if s.metrics != nil {
		s.metrics.RecordWebhookReceived(ctx, string(webhook.SourceSendcloud), d.Topic)
	}

	var payload sendcloudWebhook
	if err := json.Unmarshal(d.RawBody, &payload); err != nil || payload.Parcel.ID == 0 {
		return s.skipUnusable(ctx, webhook.SourceSendcloud, d, fmt.Sprintf("unparsable parcel payload: %v", err))
	}
	externalID := d.EventID
	if externalID == "" {
		// One ledger entry per parcel status transition.
		externalID = fmt.Sprintf("%d:%s", payload.Parcel.ID, strings.ToLower(payload.Parcel.Status.Message))
	}

	dup, event, err := s.record(ctx, webhook.SourceSendcloud, externalID, d)
	if err != nil {
		return "", err
	}
	if dup {
		return OutcomeDuplicate, nil
	}

	job, err := s.enqueuer.Enqueue(ctx, queue.JobKindReconcileLabels,
		queue.ReconcileLabelsPayload{Since: time.Now().Add(-time.Hour).Format(time.RFC3339)},
		queue.WithCorrelationID(webhook.ExternalID(webhook.SourceSendcloud, strconv.FormatInt(payload.Parcel.ID, 10))),
	)
	if err != nil {
		return "", err
	}

	event.MarkProcessed(webhook.EventStatusOK, job.ID.String(), "")
	if err := s.ledger.Update(ctx, event); err != nil {
		return "", err
	}

	s.logger.Info("sendcloud webhook accepted",
		zap.Int64("parcel_id", payload.Parcel.ID),
		zap.String("status", payload.Parcel.Status.Message),
		zap.String("job_id", job.ID.String()),
	)
	return OutcomeAccepted, nil
}

// record runs the dedup sequence: cache guard first, then the durable
// ledger. The guard is best effort; a guard outage degrades throughput,
// never correctness, because the ledger write is the one that decides.
func (s *Service) record(ctx context.Context, source webhook.Source, externalID string, d Delivery) (bool, *webhook.Event, error) {
	key := webhook.ExternalID(source, externalID)

	seen, err := s.guard.MarkSeen(ctx, key, shared.DefaultEventGuardTTL)
	if err != nil {
		s.logger.Warn("event guard unavailable, falling through to ledger",
			zap.String("external_id", key),
			zap.Error(err),
		)
	} else if !seen {
		// Guard says duplicate; confirm against the ledger so a guard
		// false positive cannot drop a never-processed delivery.
		existing, err := s.ledger.FindByExternalID(ctx, key)
		if err == nil && existing.IsProcessed() {
			s.recordDuplicate(ctx, source)
			return true, existing, nil
		}
	}

	result, err := s.ledger.RecordIfNew(ctx, webhook.NewEvent(source, externalID, d.Topic, d.Shop, d.RawBody))
	if err != nil {
		return false, nil, err
	}
	if !result.IsNew {
		s.recordDuplicate(ctx, source)
		return true, result.Event, nil
	}
	return false, result.Event, nil
}

// skipUnusable records an unusable-but-authentic delivery as skipped and
// answers success so the platform stops redelivering it.
func (s *Service) skipUnusable(ctx context.Context, source webhook.Source, d Delivery, reason string) (Outcome, error) {
	s.logger.Warn("skipping unusable webhook payload",
		zap.String("source", string(source)),
		zap.String("topic", d.Topic),
		zap.String("reason", reason),
	)
	externalID := d.EventID
	if externalID == "" {
		// No platform event id to key on; hash the raw bytes so every
		// redelivery of the same broken payload lands on one ledger row.
		externalID = fmt.Sprintf("unparsable:%x", sha256.Sum256(d.RawBody))
	}
	result, err := s.ledger.RecordIfNew(ctx, webhook.NewEvent(source, externalID, d.Topic, d.Shop, d.RawBody))
	if err != nil {
		return "", err
	}
	if result.IsNew {
		result.Event.MarkProcessed(webhook.EventStatusSkipped, "", reason)
		if err := s.ledger.Update(ctx, result.Event); err != nil {
			return "", err
		}
	}
	return OutcomeSkipped, nil
}

func (s *Service) recordRejected(ctx context.Context, source webhook.Source) {
	if s.metrics != nil {
		s.metrics.RecordWebhookRejected(ctx, string(source))
	}
	s.logger.Warn("webhook signature rejected", zap.String("source", string(source)))
}

func (s *Service) recordDuplicate(ctx context.Context, source webhook.Source) {
	if s.metrics != nil {
		s.metrics.RecordWebhookDuplicate(ctx, string(source))
	}
}
