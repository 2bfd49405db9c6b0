package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/nftpawnshop/backend/internal/apperror"
	"github.com/nftpawnshop/backend/internal/model"
	"github.com/nftpawnshop/backend/pkg/fixedpoint"
)

// Clock returns the current time. Injected so parsing is deterministic in tests.
type Clock func() time.Time

// LoanParser converts subgraph loan records into typed snapshots.
type LoanParser struct {
	clock Clock
}

// NewLoanParser creates a parser. A nil clock uses time.Now.
func NewLoanParser(clock Clock) *LoanParser {
	if clock == nil {
		clock = time.Now
	}
	return &LoanParser{clock: clock}
}

// Parse builds a snapshot with interest owed computed at the parser clock.
func (p *LoanParser) Parse(raw model.RawLoan) (*model.LoanSnapshot, error) {
	return p.ParseAt(raw, p.clock().Unix())
}

// ParseAt builds a snapshot with interest owed computed at now.
// Missing or malformed fields are data-integrity errors.
func (p *LoanParser) ParseAt(raw model.RawLoan, now int64) (*model.LoanSnapshot, error) {
	if raw.ID == "" {
		return nil, apperror.DataIntegrity("loan record has no id")
	}
	if raw.LoanAssetDecimal == nil {
		return nil, apperror.DataIntegrity(fmt.Sprintf("loan %s has no loanAssetDecimal", raw.ID))
	}

	f := fieldParser{record: "loan " + raw.ID}
	snap := &model.LoanSnapshot{
		ID:                        raw.ID,
		CollateralName:            raw.CollateralName,
		CollateralTokenID:         f.bigUint("collateralTokenId", raw.CollateralTokenID, false),
		Borrower:                  f.address("borrowTicketHolder", raw.BorrowTicketHolder),
		LoanAssetContractAddress:  f.address("loanAssetContractAddress", raw.LoanAssetContractAddress),
		CollateralContractAddress: f.address("collateralContractAddress", raw.CollateralContractAddress),
		Terms: model.LoanTerms{
			LoanAmount:            f.bigUint("loanAmount", raw.LoanAmount, true),
			LoanAssetDecimals:     *raw.LoanAssetDecimal,
			PerSecondInterestRate: f.bigUint("perSecondInterestRate", raw.PerSecondInterestRate, true),
			DurationSeconds:       f.integer("durationSeconds", raw.DurationSeconds),
			LoanAssetSymbol:       raw.LoanAssetSymbol,
		},
		AccumulatedInterest:      f.bigUint("accumulatedInterest", raw.AccumulatedInterest, true),
		LastAccumulatedTimestamp: f.integer("lastAccumulatedTimestamp", raw.LastAccumulatedTimestamp),
		EndDateTimestamp:         f.integer("endDateTimestamp", raw.EndDateTimestamp),
		Closed:                   raw.Closed,
	}
	if raw.LendTicketHolder != "" {
		lender := f.address("lendTicketHolder", raw.LendTicketHolder)
		if lender != (common.Address{}) {
			snap.Lender = &lender
		}
	}
	if f.err != nil {
		return nil, f.err
	}

	owed, err := fixedpoint.InterestOwed(
		now,
		snap.LastAccumulatedTimestamp,
		snap.Terms.LoanAmount,
		snap.Terms.PerSecondInterestRate,
		snap.AccumulatedInterest,
	)
	if err != nil {
		return nil, apperror.DataIntegrity(fmt.Sprintf("loan %s interest owed: %v", raw.ID, err))
	}
	repayment, err := fixedpoint.EstimatedRepayment(
		snap.Terms.PerSecondInterestRate,
		uint64(snap.Terms.DurationSeconds),
		snap.Terms.LoanAmount,
		snap.AccumulatedInterest,
	)
	if err != nil {
		return nil, apperror.DataIntegrity(fmt.Sprintf("loan %s estimated repayment: %v", raw.ID, err))
	}
	snap.InterestOwed = owed
	snap.EstimatedRepayment = repayment
	return snap, nil
}

// ParseTerms converts a terms-setting event into LoanTerms, taking the asset
// metadata from the loan it belongs to.
func ParseTerms(ev *model.TermsEvent, decimals int, symbol string) (model.LoanTerms, error) {
	f := fieldParser{record: "terms event " + ev.ID}
	terms := model.LoanTerms{
		LoanAmount:            f.bigUint("loanAmount", ev.LoanAmount, false),
		LoanAssetDecimals:     decimals,
		PerSecondInterestRate: f.bigUint("perSecondInterestRate", ev.PerSecondInterestRate, false),
		DurationSeconds:       f.integer("durationSeconds", ev.DurationSeconds),
		LoanAssetSymbol:       symbol,
	}
	return terms, f.err
}

// fieldParser keeps the first parse failure so a record can be read field by
// field without checking each one.
type fieldParser struct {
	record string
	err    error
}

func (f *fieldParser) fail(field, value string) {
	if f.err == nil {
		f.err = apperror.DataIntegrity(fmt.Sprintf("%s: invalid %s %q", f.record, field, value))
	}
}

// bigUint parses an unsigned on-chain integer. Empty values are zero when
// optional is set.
func (f *fieldParser) bigUint(field string, v model.Numeric, optional bool) *uint256.Int {
	if v == "" {
		if !optional {
			f.fail(field, "")
		}
		return new(uint256.Int)
	}
	n, err := fixedpoint.Parse(v.String())
	if err != nil {
		f.fail(field, v.String())
		return new(uint256.Int)
	}
	return n
}

// integer parses a timestamp or duration. Empty values are zero.
func (f *fieldParser) integer(field string, v model.Numeric) int64 {
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v.String(), 10, 64)
	if err != nil || n < 0 {
		f.fail(field, v.String())
		return 0
	}
	return n
}

func (f *fieldParser) address(field, v string) common.Address {
	if !common.IsHexAddress(v) {
		f.fail(field, v)
		return common.Address{}
	}
	return common.HexToAddress(v)
}
