package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMapToGRPCError(t *testing.T) {
	req := require.New(t)

	cases := []struct {
		err  error
		code codes.Code
	}{
		{fmt.Errorf("%q: %w", "alice", ErrNameInUse), codes.AlreadyExists},
		{fmt.Errorf("%q: %w", "alice", ErrNotFound), codes.NotFound},
		{fmt.Errorf("%q: %w", "bob", ErrRecipientNotFound), codes.NotFound},
		{fmt.Errorf("%w: empty name", ErrInvalidName), codes.InvalidArgument},
		{ErrEmptySender, codes.InvalidArgument},
		{fmt.Errorf("%d: %w", -1, ErrInvalidLimit), codes.InvalidArgument},
		{stderrors.New("disk on fire"), codes.Internal},
	}
	for _, c := range cases {
		req.Equal(c.code, status.Code(MapToGRPCError(c.err)), c.err.Error())
	}
	req.NoError(MapToGRPCError(nil))
}

func TestFromGRPCError_Round_Trip(t *testing.T) {
	req := require.New(t)

	for _, sentinel := range []error{ErrNameInUse, ErrNotFound, ErrRecipientNotFound, ErrInvalidName, ErrEmptySender, ErrInvalidLimit, ErrInvalidRequest} {
		wrapped := fmt.Errorf("%q: %w", "x", sentinel)
		req.ErrorIs(FromGRPCError(MapToGRPCError(wrapped)), sentinel)
	}

	internal := MapToGRPCError(stderrors.New("boom"))
	req.Equal(internal, FromGRPCError(internal))
	req.NoError(FromGRPCError(nil))
}

func TestFromGRPCError_Code_Decides(t *testing.T) {
	req := require.New(t)

	// Given an internal failure whose detail quotes another sentinel
	internal := status.Error(codes.Internal, "lookup failed: name already in use")
	// Then it stays an internal error
	req.Equal(internal, FromGRPCError(internal))
	req.NotErrorIs(FromGRPCError(internal), ErrNameInUse)

	// Given a not found detail quoting an invalid argument sentinel
	notFound := MapToGRPCError(fmt.Errorf("%q: %w", "invalid client name", ErrRecipientNotFound))
	// Then the code family wins
	req.ErrorIs(FromGRPCError(notFound), ErrRecipientNotFound)

	// Given an unknown invalid argument detail
	invalid := status.Error(codes.InvalidArgument, "limit too large")
	req.ErrorIs(FromGRPCError(invalid), ErrInvalidRequest)

	unavailable := status.Error(codes.Unavailable, "relay shutting down")
	req.Equal(codes.Unavailable, status.Code(FromGRPCError(unavailable)))
}
