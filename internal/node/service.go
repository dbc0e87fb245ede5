// Package node exposes a replica over gRPC. It translates between wire
// messages and domain types and maps protocol errors onto status codes;
// all protocol decisions stay in the replica.
package node

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/example/at2/api/gen/transferpb"
	"github.com/example/at2/internal/replica"
	"github.com/example/at2/internal/security"
	"github.com/example/at2/internal/transfer"
)

// TransferService implements the TransferService gRPC server around one
// replica.
type TransferService struct {
	pb.UnimplementedTransferServiceServer

	replica *replica.Replica
	log     *slog.Logger
}

// NewTransferService creates the gRPC service for a replica.
func NewTransferService(r *replica.Replica, logger *slog.Logger) *TransferService {
	return &TransferService{replica: r, log: logger}
}

// requestID returns the caller's correlation id when the interceptor is
// installed, or a fresh one for log correlation.
func requestID(ctx context.Context) string {
	if cid := security.CorrelationIDFromContext(ctx); cid != "" {
		return cid
	}
	return uuid.New().String()
}

// ValidateDebit handles step 1 of the protocol over the wire.
func (s *TransferService) ValidateDebit(ctx context.Context, req *pb.ValidateDebitRequest) (*pb.ValidateDebitResponse, error) {
	reqID := requestID(ctx)
	prop, err := ProposalFromWire(req.Proposal)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	share, err := s.replica.ValidateDebit(ctx, prop)
	if err != nil {
		s.log.Warn("debit rejected", "request_id", reqID,
			"transfer_id", prop.Transfer.ID.String(), "error", err)
		return nil, toStatus(err)
	}
	return &pb.ValidateDebitResponse{Share: ShareToWire(share)}, nil
}

// RegisterCertificate handles step 2, committing a certified debit.
func (s *TransferService) RegisterCertificate(ctx context.Context, req *pb.RegisterCertificateRequest) (*pb.RegisterCertificateResponse, error) {
	reqID := requestID(ctx)
	cert, err := CertificateFromWire(req.Certificate)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.replica.RegisterCertificate(ctx, cert); err != nil {
		s.log.Warn("certificate rejected", "request_id", reqID,
			"transfer_id", cert.Transfer().ID.String(), "error", err)
		return nil, toStatus(err)
	}
	return &pb.RegisterCertificateResponse{Committed: true}, nil
}

// PropagateCredit handles step 3, applying a certified transfer at the
// credit destination.
func (s *TransferService) PropagateCredit(ctx context.Context, req *pb.PropagateCreditRequest) (*pb.PropagateCreditResponse, error) {
	reqID := requestID(ctx)
	cert, err := CertificateFromWire(req.Certificate)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	recipient, err := transfer.AccountIDFromBytes(req.Recipient)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	cp := transfer.CreditProposal{
		Cert:      cert,
		Recipient: recipient,
		Amount:    transfer.Money(req.Amount),
	}

	ack, err := s.replica.ValidateCredit(ctx, cp)
	if err != nil {
		s.log.Warn("credit rejected", "request_id", reqID,
			"transfer_id", cert.Transfer().ID.String(), "error", err)
		return nil, toStatus(err)
	}
	return &pb.PropagateCreditResponse{Ack: ShareToWire(ack)}, nil
}

// GetBalance folds the committed history of an account.
func (s *TransferService) GetBalance(ctx context.Context, req *pb.GetBalanceRequest) (*pb.GetBalanceResponse, error) {
	account, err := transfer.AccountIDFromBytes(req.Account)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	balance, err := s.replica.Balance(ctx, account)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.GetBalanceResponse{
		Account: req.Account,
		Balance: uint64(balance),
	}, nil
}

// GetHistory returns the committed records of an account for actor
// synchronization. Unknown accounts return an empty history.
func (s *TransferService) GetHistory(ctx context.Context, req *pb.GetHistoryRequest) (*pb.GetHistoryResponse, error) {
	account, err := transfer.AccountIDFromBytes(req.Account)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	hist, err := s.replica.History(ctx, account)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &pb.GetHistoryResponse{}
	for _, r := range hist.Records() {
		resp.Records = append(resp.Records, &pb.RecordMsg{
			Transfer: TransferToWire(r.Transfer),
			Cert:     CertificateToWire(r.Cert),
		})
	}
	return resp, nil
}

// toStatus maps protocol errors onto gRPC status codes. Anything
// unrecognized is treated as internal, including safety violations.
func toStatus(err error) error {
	switch {
	case errors.Is(err, transfer.ErrInvalidAmount),
		errors.Is(err, transfer.ErrAmountOverflow),
		errors.Is(err, transfer.ErrSelfTransfer),
		errors.Is(err, transfer.ErrInvalidTransferID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, transfer.ErrInvalidSignature):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, transfer.ErrCertificateInvalid):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, transfer.ErrInsufficientBalance),
		errors.Is(err, transfer.ErrInvalidSequence):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, transfer.ErrUnknownAccount):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
