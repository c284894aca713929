package replay

import (
	"errors"

	"github.com/funnyzak/reqreplay/internal/source"
	"github.com/funnyzak/reqreplay/pkg/request"
)

var (
	// ErrInputUnavailable is fatal: the input file cannot be opened or read.
	ErrInputUnavailable = source.ErrUnavailable
	// ErrRecordMalformed marks a line that cannot be turned into a request.
	ErrRecordMalformed = errors.New("record malformed")
	// ErrPayloadMissing marks a record whose payload file does not exist.
	ErrPayloadMissing = errors.New("payload missing")
	// ErrRequestFailed marks a transport error or a rejected status.
	ErrRequestFailed = errors.New("request failed")
	// ErrResponseUnparseable marks a body lacking the expected fields.
	ErrResponseUnparseable = errors.New("response unparseable")
)

// classify maps a per-record error onto its failure class
func classify(err error) request.FailureClass {
	switch {
	case err == nil:
		return request.FailureNone
	case errors.Is(err, ErrRecordMalformed):
		return request.FailureRecordMalformed
	case errors.Is(err, ErrPayloadMissing):
		return request.FailurePayloadMissing
	case errors.Is(err, ErrResponseUnparseable):
		return request.FailureResponseUnparseable
	default:
		// transport errors, rejected statuses and cancelled requests
		return request.FailureRequestFailed
	}
}
