// Package logging builds the process logger on top of log/slog.
//
// New returns a *slog.Logger whose handler adds fields carried by the
// context (batch_id, item_id, report_id and the active trace and span IDs)
// and, when RedactPII is set, scrubs attributes before they are written:
//
//   - keys such as api_key, token and password keep at most a 4 char prefix
//   - latitude, longitude and location values are replaced
//   - bearer tokens, emails and decimal coordinate pairs inside strings are
//     masked
//
// Setup installs the logger as the slog default. Packages then derive
// component loggers with slog.Default().With("component", "syncer") and use
// the *Context methods to pick up the context fields:
//
//	ctx = logging.WithItemID(ctx, item.ID)
//	logger.WarnContext(ctx, "sync failed", "error", err)
package logging
