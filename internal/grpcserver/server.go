// Package grpcserver implements the lifecycle.v1.StatusService gRPC server.
//
// It delegates all business logic to the status services and handles only
// the gRPC transport concerns: metadata extraction, error mapping, and
// conversion between google.protobuf.Struct messages and domain values.
package grpcserver

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"jobboard/lifecycle-service/internal/lifecycle"
	"jobboard/lifecycle-service/internal/status"
)

// Mutator applies an action to one entity.
type Mutator interface {
	ApplyAction(ctx context.Context, id, action string) (*status.Outcome, error)
}

// Server implements StatusServiceServer.
type Server struct {
	jobs Mutator
	apps Mutator
	log  *zap.SugaredLogger
}

var _ StatusServiceServer = (*Server)(nil)

// NewServer constructs a gRPC Server backed by the given services.
func NewServer(jobs, apps Mutator, log *zap.SugaredLogger) *Server {
	return &Server{jobs: jobs, apps: apps, log: log}
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// ApplyJobAction applies an action to the job whose jobNumber is "id".
func (s *Server) ApplyJobAction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.apply(ctx, s.jobs, req)
}

// ApplyApplicationAction applies an action to the application "id".
func (s *Server) ApplyApplicationAction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.apply(ctx, s.apps, req)
}

func (s *Server) apply(ctx context.Context, svc Mutator, req *structpb.Struct) (*structpb.Struct, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	id := stringField(req, "id")
	action := stringField(req, "action")
	if id == "" || action == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "id and action are required")
	}

	out, err := svc.ApplyAction(ctx, id, action)
	if err != nil {
		return nil, s.toGRPCError(err)
	}

	resp, err := structpb.NewStruct(map[string]any{
		"id":        out.ID,
		"previous":  string(out.Previous),
		"newStatus": string(out.Status),
	})
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	return resp, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// Gateway metadata key carrying the caller's role.
const (
	mdUserRole = "x-user-role"
	roleAdmin  = "ROLE_ADMIN"
)

// requireAdmin checks the x-user-role value forwarded by the Gateway.
func requireAdmin(ctx context.Context) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return grpcstatus.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get(mdUserRole)
	if len(vals) == 0 || vals[0] == "" {
		return grpcstatus.Error(codes.Unauthenticated, "missing x-user-role metadata")
	}
	if vals[0] != roleAdmin {
		return grpcstatus.Error(codes.PermissionDenied, "role not allowed to change statuses")
	}
	return nil
}

func stringField(s *structpb.Struct, key string) string {
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

// toGRPCError maps domain errors to gRPC status errors.
func (s *Server) toGRPCError(err error) error {
	var te *lifecycle.TransitionError
	switch {
	case errors.As(err, &te):
		return grpcstatus.Error(codes.FailedPrecondition, te.Error())
	case errors.Is(err, status.ErrNotFound):
		return grpcstatus.Error(codes.NotFound, err.Error())
	case errors.Is(err, status.ErrConflict):
		return grpcstatus.Error(codes.Aborted, err.Error())
	}
	s.log.Errorw("grpc status update failed", "err", err)
	return grpcstatus.Error(codes.Internal, "internal server error")
}
