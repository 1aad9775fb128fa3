package kg

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStoreUnavailable means no store connection could be established at all.
// It is the only ingestion failure escalated as fatal to a run.
var ErrStoreUnavailable = errors.New("graph store unavailable")

// RejectReason classifies why a raw record never reached the store.
type RejectReason string

const (
	ReasonMissingField RejectReason = "missing_field"
	ReasonWrongType    RejectReason = "wrong_type"
	ReasonEmpty        RejectReason = "empty"
	// ReasonNotObject covers array elements that are not JSON objects at all.
	ReasonNotObject RejectReason = "not_object"
)

type ValidationError struct {
	Reason RejectReason
	Field  string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Field == "" {
		return fmt.Sprintf("invalid record (%s)", e.Reason)
	}
	return fmt.Sprintf("invalid record: field %q (%s)", e.Field, e.Reason)
}

// ReasonOf extracts the rejection reason when err is (or wraps) a ValidationError.
func ReasonOf(err error) RejectReason {
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		return ""
	}
	return vErr.Reason
}

func IsReason(err error, reason RejectReason) bool {
	return ReasonOf(err) == reason
}

// UpsertCode classifies a failed unit of work against the graph store.
type UpsertCode string

const (
	CodeConnectivity        UpsertCode = "connectivity_failure"
	CodeConstraint          UpsertCode = "constraint_violation"
	CodeUnconfirmed         UpsertCode = "unconfirmed_result"
	CodeInvalidRelationType UpsertCode = "invalid_relation_type"
	CodeTimeout             UpsertCode = "timeout"
	CodeTransient           UpsertCode = "transient"
	CodeInternal            UpsertCode = "internal"
)

type UpsertError struct {
	Code         UpsertCode
	Start        string
	RelationType string
	End          string
	Cause        error
}

func (e *UpsertError) Error() string {
	if e == nil {
		return "<nil>"
	}
	triple := fmt.Sprintf("%s -[%s]-> %s", e.Start, e.RelationType, e.End)
	if e.Cause == nil {
		return fmt.Sprintf("upsert %s (%s)", triple, e.Code)
	}
	return fmt.Sprintf("upsert %s: %s (%s)", triple, strings.TrimSpace(e.Cause.Error()), e.Code)
}

func (e *UpsertError) Unwrap() error { return e.Cause }

// Is makes every connectivity failure match ErrStoreUnavailable, whatever the
// driver-level cause.
func (e *UpsertError) Is(target error) bool {
	return target == ErrStoreUnavailable && e != nil && e.Code == CodeConnectivity
}

func NewUpsertError(code UpsertCode, start, relType, end string, cause error) error {
	return &UpsertError{
		Code:         code,
		Start:        start,
		RelationType: relType,
		End:          end,
		Cause:        cause,
	}
}

// CodeOf extracts the upsert code when err is (or wraps) an UpsertError.
func CodeOf(err error) UpsertCode {
	var uErr *UpsertError
	if !errors.As(err, &uErr) {
		return ""
	}
	return uErr.Code
}

func IsCode(err error, code UpsertCode) bool {
	return CodeOf(err) == code
}

// AggregationError wraps a failed statistics query.
type AggregationError struct {
	Query string
	Cause error
}

func (e *AggregationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("aggregate %s failed", e.Query)
	}
	return fmt.Sprintf("aggregate %s: %v", e.Query, e.Cause)
}

func (e *AggregationError) Unwrap() error { return e.Cause }
