package persistence

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phonedeck/phonedeck/pkg/ingest"
)

// SQLSTATE classes and codes the classifier recognizes. The set is
// deliberately closed: an unknown shape classifies as Fatal, which the
// ingestion engine answers with its per-record fallback rather than a
// hard abort.
const (
	classConnectionException = "08"
	classIntegrityViolation  = "23"

	codeUniqueViolation    = "23505"
	codeQueryCanceled      = "57014"
	codeAdminShutdown      = "57P01"
	codeCrashShutdown      = "57P02"
	codeTooManyConnections = "53300"
)

// Classify maps a store error onto the ingestion engine's policy
// classes. It is the only place ingestion code learns about pgx error
// shapes.
func Classify(err error) ingest.Classified {
	if err == nil {
		return ingest.Classified{Class: ingest.ClassRowLevel}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ingest.Classified{Class: ingest.ClassTransient, Kind: ingest.KindConnection}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ingest.Classified{Class: ingest.ClassTransient, Kind: ingest.KindConnection}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return ingest.Classified{Class: ingest.ClassRowLevel, Kind: ingest.KindDuplicate}
		case strings.HasPrefix(pgErr.Code, classIntegrityViolation):
			return ingest.Classified{Class: ingest.ClassRowLevel, Kind: ingest.KindInsert}
		case strings.HasPrefix(pgErr.Code, classConnectionException),
			pgErr.Code == codeQueryCanceled,
			pgErr.Code == codeAdminShutdown,
			pgErr.Code == codeCrashShutdown,
			pgErr.Code == codeTooManyConnections:
			return ingest.Classified{Class: ingest.ClassTransient, Kind: ingest.KindConnection}
		default:
			return ingest.Classified{Class: ingest.ClassRowLevel, Kind: ingest.KindInsert}
		}
	}

	if pgconn.Timeout(err) {
		return ingest.Classified{Class: ingest.ClassTransient, Kind: ingest.KindConnection}
	}

	// Closed/reset connections surface as plain errors from the pool.
	msg := err.Error()
	for _, sig := range []string{"connection reset", "broken pipe", "closed pool", "conn closed", "unexpected EOF"} {
		if strings.Contains(msg, sig) {
			return ingest.Classified{Class: ingest.ClassTransient, Kind: ingest.KindConnection}
		}
	}

	return ingest.Classified{Class: ingest.ClassFatal}
}
