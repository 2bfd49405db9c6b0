package model

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Numeric holds an on-chain integer the indexer may encode either as a JSON
// string (BigInt) or a JSON number (Int).
type Numeric string

// UnmarshalJSON implements json.Unmarshaler.
func (n *Numeric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" || string(data) == `""` {
		*n = ""
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("numeric: %w", err)
	}
	*n = Numeric(num.String())
	return nil
}

// String returns the decimal representation.
func (n Numeric) String() string {
	return string(n)
}

// RawLoan is a loan record exactly as the subgraph returns it.
type RawLoan struct {
	ID                        string  `json:"id"`
	LoanAssetContractAddress  string  `json:"loanAssetContractAddress"`
	CollateralContractAddress string  `json:"collateralContractAddress"`
	CollateralTokenID         Numeric `json:"collateralTokenId"`
	CollateralName            string  `json:"collateralName"`
	PerSecondInterestRate     Numeric `json:"perSecondInterestRate"`
	AccumulatedInterest       Numeric `json:"accumulatedInterest"`
	LastAccumulatedTimestamp  Numeric `json:"lastAccumulatedTimestamp"`
	DurationSeconds           Numeric `json:"durationSeconds"`
	LoanAmount                Numeric `json:"loanAmount"`
	Status                    string  `json:"status"`
	Closed                    bool    `json:"closed"`
	LoanAssetDecimal          *int    `json:"loanAssetDecimal"`
	LoanAssetSymbol           string  `json:"loanAssetSymbol"`
	LendTicketHolder          string  `json:"lendTicketHolder"`
	BorrowTicketHolder        string  `json:"borrowTicketHolder"`
	EndDateTimestamp          Numeric `json:"endDateTimestamp"`
}

// LoanTerms are set by a lender when funding or buying out a loan.
type LoanTerms struct {
	LoanAmount            *uint256.Int
	LoanAssetDecimals     int
	PerSecondInterestRate *uint256.Int
	DurationSeconds       int64
	LoanAssetSymbol       string
}

// LoanSnapshot is a typed, point-in-time view of a loan.
type LoanSnapshot struct {
	ID                        string
	CollateralName            string
	CollateralTokenID         *uint256.Int
	Borrower                  common.Address
	Lender                    *common.Address
	LoanAssetContractAddress  common.Address
	CollateralContractAddress common.Address
	Terms                     LoanTerms
	AccumulatedInterest       *uint256.Int
	LastAccumulatedTimestamp  int64
	EndDateTimestamp          int64
	Closed                    bool

	// InterestOwed and EstimatedRepayment are derived at parse time and
	// never stored.
	InterestOwed       *uint256.Int
	EstimatedRepayment *uint256.Int
}

// Funded reports whether a lender has ever funded the loan.
func (l *LoanSnapshot) Funded() bool {
	return l.LastAccumulatedTimestamp != 0
}

// TermsEvent is the most recent terms-setting event for a loan, as returned by
// the event history service.
type TermsEvent struct {
	ID                    string  `json:"id"`
	Timestamp             int64   `json:"timestamp"`
	Lender                string  `json:"lender"`
	LoanAmount            Numeric `json:"loanAmount"`
	PerSecondInterestRate Numeric `json:"perSecondInterestRate"`
	DurationSeconds       Numeric `json:"durationSeconds"`
}
