package salesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/domain/salesync"
	"github.com/erp/posbridge/internal/domain/shared"
	"github.com/erp/posbridge/internal/infrastructure/logger"
	"github.com/erp/posbridge/internal/infrastructure/telemetry"
)

// TaskTypeSaleIngest is the background task carrying an accepted receipt
const TaskTypeSaleIngest = "sale:ingest"

// ErrTaskRejected is returned by Accept when the executor refused the receipt
var ErrTaskRejected = errors.New("salesync: background executor rejected the receipt")

// AcceptResult is what the webhook caller gets to know
type AcceptResult struct {
	State     salesync.IngestState
	ReceiptID string
	Reason    string
}

// PipelineConfig configures the ingestion pipeline
type PipelineConfig struct {
	// Secret is the webhook signing secret; empty disables verification
	Secret string
	// ReceiptTTL is how long an ingested receipt id is remembered locally
	ReceiptTTL time.Duration
}

// Pipeline ingests POS sale notifications.
//
// Accept runs synchronously inside the webhook request and only verifies,
// filters and hands the receipt to the executor. Process runs on the
// executor, resolves the lines and creates the CRM order.
type Pipeline struct {
	config   PipelineConfig
	filter   *salesync.SaleFilter
	cashier  CashierIdentity
	resolver *ProductResolver
	builder  *OrderBuilder
	executor shared.TaskExecutor
	logger   *zap.Logger

	store    shared.IdempotencyStore
	recent   WebhookLog
	recorder IngestRecorder
	now      func() time.Time
}

// NewPipeline creates a pipeline and registers its task handler on the executor
func NewPipeline(
	config PipelineConfig,
	filter *salesync.SaleFilter,
	cashier CashierIdentity,
	resolver *ProductResolver,
	builder *OrderBuilder,
	executor shared.TaskExecutor,
	logger *zap.Logger,
) *Pipeline {
	p := &Pipeline{
		config:   config,
		filter:   filter,
		cashier:  cashier,
		resolver: resolver,
		builder:  builder,
		executor: executor,
		logger:   logger,
		now:      time.Now,
	}
	executor.Register(TaskTypeSaleIngest, p.HandleTask)
	return p
}

// SetIdempotencyStore enables the local already-ingested check
func (p *Pipeline) SetIdempotencyStore(store shared.IdempotencyStore) {
	p.store = store
}

// SetWebhookLog attaches the recent-webhook diagnostics log
func (p *Pipeline) SetWebhookLog(log WebhookLog) {
	p.recent = log
}

// SetRecorder attaches an ingestion observer
func (p *Pipeline) SetRecorder(recorder IngestRecorder) {
	p.recorder = recorder
}

// ---------------------------------------------------------------------------
// Synchronous part
// ---------------------------------------------------------------------------

// Accept verifies and filters a raw webhook body. An error means the caller
// must answer with a failure status; ignored receipts are not errors.
func (p *Pipeline) Accept(ctx context.Context, body []byte, signature string) (AcceptResult, error) {
	if err := salesync.VerifySignature(p.config.Secret, body, signature); err != nil {
		p.finish(ctx, AcceptResult{State: salesync.StateRejected, Reason: err.Error()})
		return AcceptResult{State: salesync.StateRejected, Reason: err.Error()}, err
	}

	env, err := salesync.DecodeEnvelope(body)
	if err != nil {
		p.finish(ctx, AcceptResult{State: salesync.StateRejected, Reason: err.Error()})
		return AcceptResult{State: salesync.StateRejected, Reason: err.Error()}, err
	}

	decision := p.filter.Evaluate(salesync.FilterInput{
		Envelope:          env,
		SignedInCashierID: p.cashier.CashierID(),
	})
	result := AcceptResult{}
	if env.IsReceipt() {
		result.ReceiptID = env.Receipt.ID
	}
	if !decision.Accepted {
		result.State = salesync.StateIgnored
		result.Reason = decision.Reason
		p.finish(ctx, result)
		return result, nil
	}

	if p.alreadyIngested(ctx, env.Receipt.ID) {
		result.State = salesync.StateIgnored
		result.Reason = salesync.ReasonAlreadyIngested
		p.finish(ctx, result)
		return result, nil
	}

	payload, err := json.Marshal(env.Receipt)
	if err != nil {
		result.State = salesync.StateFailed
		result.Reason = err.Error()
		p.finish(ctx, result)
		return result, fmt.Errorf("%w: %v", ErrTaskRejected, err)
	}
	task := shared.Task{
		ID:      "receipt:" + env.Receipt.ID,
		Type:    TaskTypeSaleIngest,
		Payload: payload,
	}
	if err := p.executor.Submit(ctx, task); err != nil {
		result.State = salesync.StateFailed
		result.Reason = err.Error()
		p.finish(ctx, result)
		return result, fmt.Errorf("%w: %v", ErrTaskRejected, err)
	}

	result.State = salesync.StateAccepted
	logger.For(ctx, p.logger).Info("Receipt accepted",
		zap.String("receipt_id", result.ReceiptID),
		zap.String("envelope", string(env.Kind)),
	)
	p.remember(result)
	return result, nil
}

func (p *Pipeline) alreadyIngested(ctx context.Context, receiptID string) bool {
	if p.store == nil {
		return false
	}
	processed, err := p.store.IsProcessed(ctx, idempotencyKey(receiptID))
	if err != nil {
		// The CRM still rejects duplicate source uuids
		p.logger.Warn("Idempotency check failed", zap.String("receipt_id", receiptID), zap.Error(err))
		return false
	}
	return processed
}

// ---------------------------------------------------------------------------
// Asynchronous part
// ---------------------------------------------------------------------------

// HandleTask is the executor entry point for TaskTypeSaleIngest
func (p *Pipeline) HandleTask(ctx context.Context, task shared.Task) error {
	var receipt salesync.Receipt
	if err := json.Unmarshal(task.Payload, &receipt); err != nil {
		p.finish(ctx, AcceptResult{State: salesync.StateFailed, Reason: err.Error()})
		return fmt.Errorf("decode task %s: %w", task.ID, err)
	}
	return p.Process(ctx, &receipt)
}

// Process resolves and submits an accepted receipt. Errors are logged and
// returned to the executor; nobody waits for them.
func (p *Pipeline) Process(ctx context.Context, receipt *salesync.Receipt) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale_ingest", "process",
		telemetry.SpanAttrReceiptID.String(receipt.ID),
	)
	defer span.End()

	log := logger.For(ctx, p.logger).With(zap.String("receipt_id", receipt.ID))
	log.Debug("Resolving receipt lines", zap.Int("lines", len(receipt.Goods)))

	lines := p.resolver.ResolveLines(ctx, receipt.Goods)
	span.SetAttributes(telemetry.SpanAttrLines.Int(len(lines)))

	outcome, err := p.builder.Submit(ctx, receipt, lines)
	if p.recorder != nil {
		p.recorder.RecordOrder(ctx, outcome)
	}
	if err != nil {
		log.Error("Receipt ingestion failed", zap.String("outcome", outcome), zap.Error(err))
		telemetry.RecordError(span, err)
		p.finish(ctx, AcceptResult{State: salesync.StateFailed, ReceiptID: receipt.ID, Reason: err.Error()})
		return err
	}

	if p.store != nil {
		if _, err := p.store.MarkProcessed(ctx, idempotencyKey(receipt.ID), p.config.ReceiptTTL); err != nil {
			log.Warn("Failed to mark receipt as ingested", zap.Error(err))
		}
	}
	p.finish(ctx, AcceptResult{State: salesync.StateSubmitted, ReceiptID: receipt.ID, Reason: outcome})
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// finish records a terminal state
func (p *Pipeline) finish(ctx context.Context, result AcceptResult) {
	if p.recorder != nil {
		p.recorder.RecordReceipt(ctx, result.State)
	}
	if result.State == salesync.StateIgnored {
		logger.For(ctx, p.logger).Info("Webhook ignored",
			zap.String("receipt_id", result.ReceiptID),
			zap.String("reason", result.Reason),
		)
	}
	p.remember(result)
}

func (p *Pipeline) remember(result AcceptResult) {
	if p.recent == nil {
		return
	}
	p.recent.Record(salesync.WebhookOutcome{
		At:        p.now(),
		ReceiptID: result.ReceiptID,
		State:     result.State,
		Reason:    result.Reason,
	})
}

func idempotencyKey(receiptID string) string {
	return "receipt:" + receiptID
}
