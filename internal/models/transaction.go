package models

// FinancialTransaction is a ledger-mirrored payment as exposed by
// /api/blockchain/financial-transactions/me.
type FinancialTransaction struct {
	MongoID       FlexString `json:"_id"`
	ID            FlexString `json:"id"`
	Description   FlexString `json:"description"`
	PaymentMethod FlexString `json:"paymentMethod"`
	Amount        FlexNumber `json:"amount"`
	Status        FlexString `json:"status"`
	TxHash        FlexString `json:"transactionHash"`
	CreatedAt     FlexTime   `json:"createdAt"`
	UpdatedAt     FlexTime   `json:"updatedAt"`
	Timestamp     FlexTime   `json:"timestamp"`
}

// Key returns the transaction's source id.
func (t FinancialTransaction) Key() string {
	id, _ := FirstPresent(t.MongoID, t.ID, t.TxHash)
	return id
}

// TransactionRow is one line of the transactions table and its export.
type TransactionRow struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	Description   string `json:"description"`
	PaymentMethod string `json:"paymentMethod"`
	Amount        string `json:"amount"`
	Status        string `json:"status,omitempty"`
	TxHash        string `json:"transactionHash,omitempty"`
}

// BlockchainStatus is the ledger connectivity badge.
type BlockchainStatus struct {
	Connected   bool       `json:"connected"`
	Status      FlexString `json:"status"`
	Network     FlexString `json:"network"`
	BlockHeight FlexNumber `json:"blockHeight"`
	Message     FlexString `json:"message"`
}

// BlockchainRequest is a document request mirrored on the ledger.
type BlockchainRequest struct {
	MongoID      FlexString `json:"_id"`
	RequestID    FlexString `json:"requestId"`
	ResidentID   FlexString `json:"residentId"`
	DocumentType FlexString `json:"documentType"`
	Status       FlexString `json:"status"`
	TxHash       FlexString `json:"transactionHash"`
	CreatedAt    FlexTime   `json:"createdAt"`
}

// BlockchainTotals summarizes the resident's on-chain footprint.
type BlockchainTotals struct {
	Status       *BlockchainStatus `json:"status,omitempty"`
	Requests     int               `json:"requests"`
	Transactions int               `json:"transactions"`
}
