// Package nowcast implements the cross-validated regression pipeline for
// predicting the eventual backfill-corrected value of a surveillance
// signal: leave-one-season-out validation, diagnostic reporting, grid
// experiments over regression/backfill windows, and penalized model
// selection for single-week prediction.
package nowcast
