package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nftpawnshop/backend/internal/model"
	"github.com/stretchr/testify/mock"
)

const (
	testBorrower  = "0x0dd7d78ed27632839cd2a929ee570ead346c19fc"
	testOldLender = "0x10359616ab170c1bd6c478a40c6715a49ba25efc"
	testNewLender = "0x7e6463782b87c57CFFa6AF66E7C2de64E97d1866"
	testTxHash    = "0x7685d19b85fb80c03ac0c117ea542b77a6c8ecebea56744b121183cfb614bce6"

	// 2022-02-14 00:00:00 UTC; the loan matures 120 days later on 06/14/2022.
	testLendTimestamp = int64(1644796800)
	testEndTimestamp  = testLendTimestamp + 10368000
	testNow           = int64(1647357808)
)

var testFormatterConfig = FormatterConfig{
	SiteURL:     "https://nftpawnshop.xyz",
	ExplorerURL: "https://rinkeby.etherscan.io",
	WindowHours: 24,
}

func intPtr(v int) *int { return &v }

// testRawLoan is loan #65: 8192 DAI for 120 days at 6.3072% per year.
func testRawLoan() model.RawLoan {
	return model.RawLoan{
		ID:                        "65",
		LoanAssetContractAddress:  "0x6916577695d0774171de3ed95d03a3239139eddb",
		CollateralContractAddress: "0x8bb8847b2d5dcc4b3d6431d5b6b3be89eb41c8b5",
		CollateralTokenID:         "192",
		CollateralName:            "monarchs",
		PerSecondInterestRate:     "2000000000",
		AccumulatedInterest:       "0",
		LastAccumulatedTimestamp:  model.Numeric("1644796800"),
		DurationSeconds:           "10368000",
		LoanAmount:                "8192000000000000000000",
		Status:                    "Active",
		LoanAssetDecimal:          intPtr(18),
		LoanAssetSymbol:           "DAI",
		LendTicketHolder:          testOldLender,
		BorrowTicketHolder:        testBorrower,
		EndDateTimestamp:          model.Numeric("1655164800"),
	}
}

func testPriorTerms(timestamp int64) *model.TermsEvent {
	return &model.TermsEvent{
		ID:                    "0xprior",
		Timestamp:             timestamp,
		Lender:                testOldLender,
		LoanAmount:            "8000000000000000000000",
		PerSecondInterestRate: "2000000000",
		DurationSeconds:       "10368000",
	}
}

// MockTermsLookup for testing
type MockTermsLookup struct {
	mock.Mock
}

func (m *MockTermsLookup) MostRecentTermsForLoan(ctx context.Context, loanID string, before int64) (*model.TermsEvent, error) {
	args := m.Called(ctx, loanID, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TermsEvent), args.Error(1)
}

// MockNameResolver for testing
type MockNameResolver struct {
	mock.Mock
}

func (m *MockNameResolver) LookupAddress(ctx context.Context, addr common.Address) (string, error) {
	args := m.Called(ctx, addr)
	return args.String(0), args.Error(1)
}
