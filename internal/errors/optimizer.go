package errors

import "errors"

// SQLSTATE codes used by the optimizer. Custom codes live in the XX/OP
// classes; cancellation maps onto the standard 57 class.
const (
	CodeBindingInvariant = "OP001" // malformed bound input tree
	CodeNoPhysicalPlan   = "OP002" // search exhausted without a winner
	CodeCancelled        = "57014" // query_canceled
	CodeDeadlineExceeded = "57015"
	CodeCatalog          = "OP003" // catalog collaborator failure
	CodeInternal         = "XX000" // internal_error
)

// BindingInvariantViolation reports a structural precondition failure on the
// input tree. Fatal; surfaced to the caller.
func BindingInvariantViolation(format string, args ...interface{}) *Error {
	return Newf(CodeBindingInvariant, format, args...).WithRoutine("optimizer")
}

// NoPhysicalPlan reports that exhaustive search found no winner for the root
// required property set.
func NoPhysicalPlan(detail string) *Error {
	return New(CodeNoPhysicalPlan, "no physical plan satisfies the required properties").
		WithDetail(detail).WithRoutine("optimizer")
}

// Cancelled reports cooperative termination via the caller's context.
func Cancelled(detail string) *Error {
	return New(CodeCancelled, "optimization cancelled").WithDetail(detail).WithRoutine("optimizer")
}

// DeadlineExceeded reports that the optimization deadline passed before the
// search completed and no best-so-far plan exists.
func DeadlineExceeded(detail string) *Error {
	return New(CodeDeadlineExceeded, "optimization deadline exceeded").
		WithDetail(detail).WithRoutine("optimizer")
}

// Catalog wraps a collaborator-raised catalog error.
func Catalog(cause error) *Error {
	return New(CodeCatalog, "catalog access failed").Wrap(cause).WithRoutine("catalog")
}

// Internal reports memo corruption or an unreachable match. Indicates a bug.
func Internal(format string, args ...interface{}) *Error {
	return Newf(CodeInternal, format, args...).WithRoutine("optimizer")
}

// IsNoPhysicalPlan reports whether err is a NoPhysicalPlan error.
func IsNoPhysicalPlan(err error) bool { return CodeOf(err) == CodeNoPhysicalPlan }

// IsCancelled reports whether err is a Cancelled error.
func IsCancelled(err error) bool { return CodeOf(err) == CodeCancelled }

// IsDeadlineExceeded reports whether err is a DeadlineExceeded error.
func IsDeadlineExceeded(err error) bool { return CodeOf(err) == CodeDeadlineExceeded }

// IsInternal reports whether err is an Internal error.
func IsInternal(err error) bool { return CodeOf(err) == CodeInternal }

// IsCatalog reports whether err wraps a catalog failure.
func IsCatalog(err error) bool { return CodeOf(err) == CodeCatalog }

// As is a convenience re-export of errors.As for callers that only import
// this package.
func As(err error, target interface{}) bool { return errors.As(err, target) }
