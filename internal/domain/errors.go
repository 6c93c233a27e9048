package domain

import "fmt"

// ValidationError reports malformed or missing integration credentials.
// It aborts the whole call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// RemoteError is a transient remote-call failure: network error, timeout,
// 5xx, or a "status: failed" payload. The transport retries it; a component
// whose retries exhaust wraps it into a SyncError or absorbs it during
// enrichment.
type RemoteError struct {
	Path       string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote call %s failed with status %d: %v", e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote call %s failed: %v", e.Path, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// SyncError reports that transaction pagination for one wallet could not
// complete. It is isolated to that wallet and never aborts sibling wallets.
type SyncError struct {
	WalletID int64
	Currency string
	Err      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed for wallet %d (%s): %v", e.WalletID, e.Currency, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// EnrichmentError reports a failed price lookup for one transaction or one
// asset's candle series. The enricher absorbs it by substituting a nil price.
type EnrichmentError struct {
	Symbol string
	Err    error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment failed for %s: %v", e.Symbol, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// ParseError reports a malformed numeric string from the exchange. Downstream
// arithmetic cannot proceed, so it aborts the call.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q as a number: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
