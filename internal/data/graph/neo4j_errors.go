package graph

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/graphloader/internal/domain/kg"
)

// classifyNeo4jError maps driver and server failures onto the upsert taxonomy.
// Order matters: context errors first, since the driver surfaces a cancelled
// context through several of its own error types.
func classifyNeo4jError(start, relType, end string, err error) error {
	if err == nil {
		return nil
	}
	if kg.CodeOf(err) != "" {
		return err
	}
	return kg.NewUpsertError(codeForNeo4jError(err), start, relType, end, err)
}

func codeForNeo4jError(err error) kg.UpsertCode {
	switch {
	case errors.Is(err, errUnconfirmed):
		return kg.CodeUnconfirmed
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return kg.CodeTimeout
	case errors.Is(err, kg.ErrStoreUnavailable):
		return kg.CodeConnectivity
	}

	var connErr *neo4j.ConnectivityError
	if errors.As(err, &connErr) {
		return kg.CodeConnectivity
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return kg.CodeTimeout
		}
		return kg.CodeConnectivity
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return kg.CodeConnectivity
	}

	var dbErr *neo4j.Neo4jError
	if errors.As(err, &dbErr) {
		return codeForServerStatus(dbErr.Code)
	}
	if neo4j.IsTransactionExecutionLimit(err) {
		return kg.CodeTransient
	}
	return kg.CodeInternal
}

// codeForServerStatus classifies a Neo4j status code such as
// Neo.ClientError.Schema.ConstraintValidationFailed.
func codeForServerStatus(code string) kg.UpsertCode {
	switch {
	case strings.HasPrefix(code, "Neo.ClientError.Schema."):
		return kg.CodeConstraint
	case code == "Neo.ClientError.Statement.SyntaxError",
		code == "Neo.ClientError.Statement.InvalidType":
		return kg.CodeInvalidRelationType
	case strings.HasPrefix(code, "Neo.ClientError.Transaction.TransactionTimedOut"),
		code == "Neo.ClientError.Transaction.LockClientStopped":
		return kg.CodeTimeout
	case strings.HasPrefix(code, "Neo.ClientError.Security."),
		code == "Neo.ClientError.Database.DatabaseNotFound",
		strings.HasPrefix(code, "Neo.ClientError.Cluster."):
		return kg.CodeConnectivity
	case strings.HasPrefix(code, "Neo.TransientError."):
		return kg.CodeTransient
	default:
		return kg.CodeInternal
	}
}
