package models

import "errors"

// Transition and scan errors. Handlers map these to HTTP codes and the
// Reason* constants; none is ever swallowed.
var (
	ErrOrderNotFound     = errors.New("work order not found")
	ErrUnknownDepartment = errors.New("unknown department")

	ErrNoMatchingEntry  = errors.New("exit without an open entry for this department")
	ErrIllegalSuccessor = errors.New("department is not reachable from the order's current position")
	ErrAlreadyCompleted = errors.New("work order is already completed")

	// ErrStaleAppend means a concurrent transition won the
	// compare-and-append race; the caller must re-read before retrying.
	ErrStaleAppend = errors.New("ledger append lost to a concurrent transition")

	ErrDuplicateScan = errors.New("token already scanned within the suppression window")
	ErrRateExceeded  = errors.New("actor scan rate ceiling exceeded")
)
