// Package catalogsync contains the Catalog Sync bounded context.
// This context keeps the POS catalog in step with the CRM catalog (CRM -> POS only).
//
// Key concepts:
//   - CatalogUnit: one sellable line from the CRM (a bare product or one offer of a product)
//   - Code: the cross-system join key stored on the POS good (see DeriveCode)
//   - Good: the POS-side catalog record
//   - Group: POS-side category container, at most two levels deep
//   - RunSummary: outcome of one reconciliation run
//
// Design Pattern: Ports & Adapters
//   - Pure mapping and identity rules live here
//   - Read/write ports are declared by the application layer
//   - HTTP adapters for the CRM and POS live in the infrastructure layer
package catalogsync
