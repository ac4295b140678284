package errors

import (
	stderrors "errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MapToGRPCError turns relay sentinels into gRPC status errors.
// Unknown errors are reported as Internal.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case stderrors.Is(err, ErrNameInUse):
		return status.Error(codes.AlreadyExists, err.Error())
	case stderrors.Is(err, ErrNotFound), stderrors.Is(err, ErrRecipientNotFound):
		return status.Error(codes.NotFound, err.Error())
	case stderrors.Is(err, ErrInvalidName),
		stderrors.Is(err, ErrEmptySender),
		stderrors.Is(err, ErrInvalidLimit),
		stderrors.Is(err, ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// FromGRPCError is the client side inverse of MapToGRPCError.
// The status code picks the family; the message only tells apart the sentinels
// sharing a code. Other codes are returned untouched.
func FromGRPCError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.AlreadyExists:
		return ErrNameInUse
	case codes.NotFound:
		return matchSentinel(st.Message(), ErrNotFound, ErrRecipientNotFound)
	case codes.InvalidArgument:
		return matchSentinel(st.Message(), ErrInvalidRequest, ErrInvalidName, ErrEmptySender, ErrInvalidLimit)
	default:
		return err
	}
}

// matchSentinel returns the candidate wrapped by message, or fallback.
// Sentinels are wrapped either as "<sentinel>: detail" or "detail: <sentinel>".
func matchSentinel(message string, fallback error, candidates ...error) error {
	for _, sentinel := range candidates {
		text := sentinel.Error()
		if message == text || strings.HasPrefix(message, text+":") || strings.HasSuffix(message, ": "+text) {
			return sentinel
		}
	}
	return fallback
}
