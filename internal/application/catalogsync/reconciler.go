package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/domain/catalogsync"
	"github.com/erp/posbridge/internal/infrastructure/telemetry"
)

// Reconciler pushes the CRM catalog into the POS catalog.
//
// Units are processed one at a time to stay under the CRM request ceiling.
// Concurrent runs are not guarded here; callers trigger runs serially.
type Reconciler struct {
	source   CatalogSource
	target   CatalogTarget
	groups   *GroupResolver
	mapper   *catalogsync.Mapper
	recorder RunRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewReconciler creates a new Reconciler
func NewReconciler(
	source CatalogSource,
	target CatalogTarget,
	groups *GroupResolver,
	mapper *catalogsync.Mapper,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		source: source,
		target: target,
		groups: groups,
		mapper: mapper,
		logger: logger,
		now:    time.Now,
	}
}

// SetRecorder attaches a run observer
func (r *Reconciler) SetRecorder(recorder RunRecorder) {
	r.recorder = recorder
}

// Run performs one reconciliation pass. The summary is always returned; the
// error is non-nil only when the run was aborted, in which case summary.Error
// carries the same message.
func (r *Reconciler) Run(ctx context.Context) (*catalogsync.RunSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog_sync", "run")
	defer span.End()

	summary := catalogsync.NewRunSummary(r.now())

	r.groups.Prime(ctx)

	products, err := r.source.ListProducts(ctx)
	if err != nil {
		return r.abort(ctx, summary, fmt.Errorf("%w: %v", catalogsync.ErrProductEnumeration, err))
	}

	units := r.expand(ctx, products, summary)
	summary.Units = len(units)
	span.SetAttributes(telemetry.SpanAttrUnits.Int(len(units)))

	r.logger.Info("Starting catalog reconciliation",
		zap.Int("products", len(products)),
		zap.Int("units", len(units)),
	)

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return r.abort(ctx, summary, err)
		}
		r.reconcileUnit(ctx, unit, summary)
	}

	summary.Finish(r.now())
	r.recordRun(ctx, summary, false)

	r.logger.Info("Catalog reconciliation completed",
		zap.Int("units", summary.Units),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", len(summary.Errors)),
		zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary, nil
}

func (r *Reconciler) abort(ctx context.Context, summary *catalogsync.RunSummary, err error) (*catalogsync.RunSummary, error) {
	summary.Abort(err, r.now())
	telemetry.RecordError(trace.SpanFromContext(ctx), err)
	r.recordRun(ctx, summary, true)
	r.logger.Error("Catalog reconciliation aborted", zap.Error(err))
	return summary, err
}

// expand flattens products into units. A product with variants becomes its
// offers; a product flagged with variants but without any offers is synced
// as itself.
func (r *Reconciler) expand(ctx context.Context, products []catalogsync.Product, summary *catalogsync.RunSummary) []catalogsync.CatalogUnit {
	units := make([]catalogsync.CatalogUnit, 0, len(products))
	for _, product := range products {
		category := r.groups.Category(product.CategoryID)
		if !product.HasOffers {
			units = append(units, catalogsync.UnitFromProduct(product, category))
			continue
		}

		offers, err := r.source.ListOffers(ctx, product.ID)
		if err != nil {
			summary.AddError(catalogsync.UnitFromProduct(product, category), "", catalogsync.StageExpand, err)
			r.record(ctx, OutcomeError)
			r.logger.Warn("Failed to list offers",
				zap.Int64("product_id", product.ID),
				zap.Error(err),
			)
			continue
		}
		if len(offers) == 0 {
			units = append(units, catalogsync.UnitFromProduct(product, category))
			continue
		}
		for _, offer := range offers {
			units = append(units, catalogsync.UnitFromOffer(product, offer, category))
		}
	}
	return units
}

func (r *Reconciler) reconcileUnit(ctx context.Context, unit catalogsync.CatalogUnit, summary *catalogsync.RunSummary) {
	if strings.TrimSpace(unit.Name) == "" {
		summary.AddError(unit, "", catalogsync.StageValidate, catalogsync.ErrUnitMissingName)
		r.record(ctx, OutcomeError)
		return
	}

	code := strings.TrimSpace(catalogsync.DeriveCode(unit))
	if code == "" {
		summary.AddError(unit, "", catalogsync.StageValidate, catalogsync.ErrUnitEmptyCode)
		summary.Skipped++
		r.record(ctx, OutcomeSkipped)
		return
	}

	existing, err := r.target.GetGoodByCode(ctx, code)
	if err != nil {
		summary.AddError(unit, code, catalogsync.StageLookup, err)
		r.record(ctx, OutcomeError)
		return
	}

	groupID, hasGroup := r.groups.ResolveGroupID(ctx, unit.Category)

	if existing == nil {
		r.create(ctx, unit, code, groupID, summary)
		return
	}

	// An unresolved group keeps the current assignment
	groupChanged := hasGroup && groupID != existing.GroupID
	if !r.mapper.NeedsUpdate(*existing, unit) && !groupChanged {
		summary.Skipped++
		r.record(ctx, OutcomeSkipped)
		return
	}
	if !hasGroup {
		groupID = existing.GroupID
	}

	payload := r.mapper.ToCatalogGood(unit, unit.ParentProductID, unit.IsOffer, groupID)
	if err := r.target.UpdateGood(ctx, existing.ID, payload); err != nil {
		summary.AddError(unit, code, catalogsync.StageUpdate, err)
		r.record(ctx, OutcomeError)
		return
	}
	summary.Updated++
	r.record(ctx, OutcomeUpdated)
	r.logger.Debug("Updated POS good",
		zap.String("code", code),
		zap.String("good_id", existing.ID),
		zap.Bool("group_changed", groupChanged),
	)
}

func (r *Reconciler) create(ctx context.Context, unit catalogsync.CatalogUnit, code, groupID string, summary *catalogsync.RunSummary) {
	payload := r.mapper.ToCatalogGood(unit, unit.ParentProductID, unit.IsOffer, groupID)
	_, err := r.target.CreateGood(ctx, payload)
	switch {
	case errors.Is(err, catalogsync.ErrGoodAlreadyExists):
		// Lookup by code lags behind the catalog; the good is already there
		summary.Skipped++
		r.record(ctx, OutcomeSkipped)
		r.logger.Debug("POS good already exists, skipping", zap.String("code", code))
	case err != nil:
		summary.AddError(unit, code, catalogsync.StageCreate, err)
		r.record(ctx, OutcomeError)
	default:
		summary.Created++
		r.record(ctx, OutcomeCreated)
		r.logger.Debug("Created POS good", zap.String("code", code), zap.String("ref", unit.Ref()))
	}
}

func (r *Reconciler) record(ctx context.Context, outcome string) {
	if r.recorder != nil {
		r.recorder.RecordUnit(ctx, outcome)
	}
}

func (r *Reconciler) recordRun(ctx context.Context, summary *catalogsync.RunSummary, aborted bool) {
	if r.recorder != nil {
		r.recorder.RecordRun(ctx, summary.FinishedAt.Sub(summary.StartedAt), aborted)
	}
}
