package salesync

import "errors"

var (
	// Webhook errors
	ErrInvalidSignature = errors.New("salesync: invalid webhook signature")
	ErrMissingSignature = errors.New("salesync: missing webhook signature")
	ErrMalformedPayload = errors.New("salesync: malformed webhook payload")

	// Order errors
	ErrDuplicateOrder   = errors.New("salesync: order with this idempotency key already exists")
	ErrNoResolvedLines  = errors.New("salesync: no receipt line resolved to a CRM product")
	ErrReceiptMissingID = errors.New("salesync: receipt has no identifier")
)
