package funding

// BankInRequest captures user-provided data to fund a wallet from a bank account.
type BankInRequest struct {
	BankAccount string `json:"bank_account"`
	Amount      int64  `json:"amount"`
	ClientTxID  string `json:"client_tx_id"`
}

// BankOutRequest captures withdrawal details to push funds to a bank account.
type BankOutRequest struct {
	BankAccount string `json:"bank_account"`
	Amount      int64  `json:"amount"`
	ClientTxID  string `json:"client_tx_id"`
}

// FundingResponse represents the API response for bank funding actions.
type FundingResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	WalletBalance int64  `json:"wallet_balance"`
	BankReference string `json:"bank_reference"`
}
