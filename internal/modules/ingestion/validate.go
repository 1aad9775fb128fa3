package ingestion

import (
	"context"
	"strings"

	"github.com/yungbote/graphloader/internal/domain/kg"
)

var tripleFields = [...]string{kg.FieldStart, kg.FieldRelationship, kg.FieldEnd}

// Rejection is a record that failed validation, with its position in the input.
type Rejection struct {
	Index  int
	Record kg.Record
	Err    error
}

// Validate checks presence, then type, then non-emptiness of the three triple
// fields. The returned triple is trimmed.
func Validate(ctx context.Context, rec kg.Record) (kg.Triple, error) {
	if err := ctx.Err(); err != nil {
		return kg.Triple{}, err
	}
	if rec == nil {
		return kg.Triple{}, &kg.ValidationError{Reason: kg.ReasonNotObject}
	}
	for _, f := range tripleFields {
		if _, ok := rec[f]; !ok {
			return kg.Triple{}, &kg.ValidationError{Reason: kg.ReasonMissingField, Field: f}
		}
	}
	var vals [len(tripleFields)]string
	for i, f := range tripleFields {
		s, ok := rec[f].(string)
		if !ok {
			return kg.Triple{}, &kg.ValidationError{Reason: kg.ReasonWrongType, Field: f}
		}
		vals[i] = strings.TrimSpace(s)
	}
	for i, f := range tripleFields {
		if vals[i] == "" {
			return kg.Triple{}, &kg.ValidationError{Reason: kg.ReasonEmpty, Field: f}
		}
	}
	return kg.Triple{Start: vals[0], Relationship: vals[1], End: vals[2]}, nil
}

// ValidateAll splits recs into valid triples and rejections. A cancelled ctx
// stops the scan; the remaining records are neither valid nor rejected.
func ValidateAll(ctx context.Context, recs []kg.Record) ([]kg.Triple, []Rejection) {
	valid := make([]kg.Triple, 0, len(recs))
	var rejected []Rejection
	for i, rec := range recs {
		if ctx.Err() != nil {
			break
		}
		t, err := Validate(ctx, rec)
		if err != nil {
			rejected = append(rejected, Rejection{Index: i, Record: rec, Err: err})
			continue
		}
		valid = append(valid, t)
	}
	return valid, rejected
}
