// Package salesync contains the Sale Sync bounded context.
// This context mirrors completed POS sales into the CRM as orders (POS -> CRM only).
//
// Key concepts:
//   - Receipt: immutable POS sale record delivered by webhook
//   - Envelope: tagged union over the notification shapes the POS is known to send
//   - SaleFilter: ordered guard chain separating genuine sales from echoes and noise
//   - OrderRequest: the CRM order built from an accepted receipt; its idempotency
//     key is the receipt identifier
package salesync
