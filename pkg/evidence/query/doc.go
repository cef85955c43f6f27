// Package query validates report queries before they reach a report store.
//
// # Query Validation
//
// The validator checks:
//
//   - 0 <= Limit <= MaxLimit
//   - Offset >= 0
//   - MinScore within 0..100
//   - Status is one of pending, verified, disputed, flagged
//   - Since is not in the future
//
// # Basic Usage
//
//	q := &evidence.ReportQuery{Status: evidence.VerificationFlagged}
//	query.ApplyDefaults(q)
//	if err := query.Validate(q); err != nil {
//	    return err
//	}
//	reports, err := store.List(ctx, q)
package query
