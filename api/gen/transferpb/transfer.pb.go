package transferpb

type TransferMsg struct {
	TransferId []byte `json:"transfer_id,omitempty"`
	Sender     []byte `json:"sender,omitempty"`
	Recipient  []byte `json:"recipient,omitempty"`
	Amount     uint64 `json:"amount,omitempty"`
	Counter    uint64 `json:"counter,omitempty"`
}

type DebitProposalMsg struct {
	Transfer *TransferMsg `json:"transfer,omitempty"`
	ActorSig []byte       `json:"actor_sig,omitempty"`
}

type CertificateMsg struct {
	Debit    *DebitProposalMsg `json:"debit,omitempty"`
	GroupSig []byte            `json:"group_sig,omitempty"`
}

type RecordMsg struct {
	Transfer *TransferMsg    `json:"transfer,omitempty"`
	Cert     *CertificateMsg `json:"cert,omitempty"`
}

type ShareMsg struct {
	TransferId []byte `json:"transfer_id,omitempty"`
	Index      uint32 `json:"index,omitempty"`
	Share      []byte `json:"share,omitempty"`
}

type ValidateDebitRequest struct {
	Proposal *DebitProposalMsg `json:"proposal,omitempty"`
}

type ValidateDebitResponse struct {
	Share *ShareMsg `json:"share,omitempty"`
}

type RegisterCertificateRequest struct {
	Certificate *CertificateMsg `json:"certificate,omitempty"`
}

type RegisterCertificateResponse struct {
	Committed bool `json:"committed,omitempty"`
}

type PropagateCreditRequest struct {
	Certificate *CertificateMsg `json:"certificate,omitempty"`
	Recipient   []byte          `json:"recipient,omitempty"`
	Amount      uint64          `json:"amount,omitempty"`
}

type PropagateCreditResponse struct {
	Ack *ShareMsg `json:"ack,omitempty"`
}

type GetBalanceRequest struct {
	Account []byte `json:"account,omitempty"`
}

type GetBalanceResponse struct {
	Account []byte `json:"account,omitempty"`
	Balance uint64 `json:"balance,omitempty"`
}

type GetHistoryRequest struct {
	Account []byte `json:"account,omitempty"`
}

type GetHistoryResponse struct {
	Records []*RecordMsg `json:"records,omitempty"`
}
