package salesync

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/domain/catalogsync"
	"github.com/erp/posbridge/internal/domain/salesync"
)

// ProductResolver maps receipt lines onto CRM products.
// The fallback chain is SKU, then barcode, then exact name; the first match wins.
type ProductResolver struct {
	catalog ProductCatalog
	logger  *zap.Logger
}

// NewProductResolver creates a new ProductResolver
func NewProductResolver(catalog ProductCatalog, logger *zap.Logger) *ProductResolver {
	return &ProductResolver{catalog: catalog, logger: logger}
}

// ResolveLine resolves one receipt line. ok is false when no step matched or
// the line carries neither a code nor a name. Lookup errors fall through to
// the next step.
func (r *ProductResolver) ResolveLine(ctx context.Context, line salesync.ReceiptLine) (salesync.ResolvedProduct, bool) {
	code := strings.TrimSpace(line.Good.Code)
	barcode := strings.TrimSpace(line.Good.Barcode)
	name := strings.TrimSpace(line.Good.Name)

	if code == "" && name == "" {
		r.logger.Warn("Receipt line has neither code nor name, skipping",
			zap.String("good_id", line.GoodID),
		)
		return salesync.ResolvedProduct{}, false
	}

	if code != "" {
		offer, err := r.catalog.GetOfferBySKU(ctx, code)
		if err != nil {
			r.logger.Warn("SKU lookup failed", zap.String("sku", code), zap.Error(err))
		} else if offer != nil {
			return fromOffer(offer, salesync.MatchBySKU), true
		}
	}

	if barcode != "" {
		offer, err := r.catalog.FindOfferByBarcode(ctx, barcode)
		if err != nil {
			r.logger.Warn("Barcode lookup failed", zap.String("barcode", barcode), zap.Error(err))
		} else if offer != nil {
			return fromOffer(offer, salesync.MatchByBarcode), true
		}
	}

	if name != "" {
		product, err := r.catalog.FindProductByName(ctx, name)
		if err != nil {
			r.logger.Warn("Name lookup failed", zap.String("name", name), zap.Error(err))
		} else if product != nil {
			return salesync.ResolvedProduct{
				ProductID: product.ID,
				SKU:       product.SKU,
				Name:      product.Name,
				Price:     product.Price,
				MatchedBy: salesync.MatchByName,
			}, true
		}
	}

	r.logger.Info("Receipt line did not resolve to a CRM product",
		zap.String("code", code),
		zap.String("barcode", barcode),
		zap.String("name", name),
	)
	return salesync.ResolvedProduct{}, false
}

// ResolveLines resolves every line, omitting the ones that do not resolve
func (r *ProductResolver) ResolveLines(ctx context.Context, lines []salesync.ReceiptLine) []salesync.ResolvedLine {
	resolved := make([]salesync.ResolvedLine, 0, len(lines))
	for _, line := range lines {
		product, ok := r.ResolveLine(ctx, line)
		if !ok {
			continue
		}
		resolved = append(resolved, salesync.ResolvedLine{Line: line, Product: product})
	}
	return resolved
}

func fromOffer(offer *catalogsync.Offer, kind salesync.MatchKind) salesync.ResolvedProduct {
	return salesync.ResolvedProduct{
		OfferID:   offer.ID,
		ProductID: offer.ProductID,
		SKU:       offer.SKU,
		Name:      offer.Name,
		Price:     offer.Price,
		MatchedBy: kind,
	}
}
