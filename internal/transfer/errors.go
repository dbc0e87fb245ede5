package transfer

import "errors"

var (
	// ErrInvalidAmount occurs when a transfer carries a zero amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrSelfTransfer occurs when sender and recipient are the same account.
	ErrSelfTransfer = errors.New("sender and recipient are the same account")

	// ErrInvalidTransferID indicates the transfer identifier does not match
	// the fields it is supposed to be derived from.
	ErrInvalidTransferID = errors.New("transfer id does not match transfer fields")

	// ErrInvalidSignature indicates the actor signature over a proposal
	// failed verification.
	ErrInvalidSignature = errors.New("invalid actor signature")

	// ErrInsufficientBalance occurs when a debit exceeds the committed
	// balance of the sender account.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidSequence rejects a debit whose counter is not the next
	// expected value for the sender account (replay or gap).
	ErrInvalidSequence = errors.New("counter out of sequence")

	// ErrUnknownAccount occurs when an operation references an account the
	// replica holds no history for.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrInvalidSignatureShare indicates a threshold signature share failed
	// verification against the group public polynomial.
	ErrInvalidSignatureShare = errors.New("invalid signature share")

	// ErrDuplicateShare marks a share from a signer index already counted.
	// Callers treat it as a no-op, never as a failure.
	ErrDuplicateShare = errors.New("duplicate signature share")

	// ErrQuorumNotReached is returned while fewer than quorum valid shares
	// have been collected. Transient; the caller keeps collecting.
	ErrQuorumNotReached = errors.New("quorum not reached")

	// ErrAggregationFailed indicates the collected shares cannot be
	// combined into a signature that verifies against the group key.
	// Fatal for the proposal.
	ErrAggregationFailed = errors.New("signature aggregation failed")

	// ErrCertificateInvalid indicates a transfer certificate failed
	// verification, or its fields disagree with the proposal it covers.
	ErrCertificateInvalid = errors.New("invalid transfer certificate")

	// ErrUnknownTransfer occurs when a share or certificate references a
	// proposal this actor is not collecting for.
	ErrUnknownTransfer = errors.New("unknown transfer id")

	// ErrPendingProposal enforces the single in-flight proposal policy on
	// the actor side.
	ErrPendingProposal = errors.New("a proposal is already in flight")

	// ErrSafetyViolation flags two conflicting records for the same
	// account counter slot that both carry verifying certificates. This
	// indicates the Byzantine fault bound was exceeded.
	ErrSafetyViolation = errors.New("conflicting certified records for the same counter slot")

	// ErrAmountOverflow occurs when money arithmetic would wrap.
	ErrAmountOverflow = errors.New("money arithmetic overflow")
)
