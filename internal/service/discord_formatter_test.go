package service

import (
	"context"
	"testing"

	"github.com/nftpawnshop/backend/internal/apperror"
	"github.com/nftpawnshop/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotLinks = "\n\nLoan: <https://nftpawnshop.xyz/loans/65>\nEvent Tx: <https://rinkeby.etherscan.io/tx/" + testTxHash + ">"

func newTestDiscordFormatter() *DiscordFormatter {
	return NewDiscordFormatter(testFormatterConfig, nil, NewIdentityService(nil, nil))
}

func TestDiscordFormatter_Format(t *testing.T) {
	t.Parallel()

	base := model.EventBase{ID: testTxHash, Timestamp: testNow, Loan: testRawLoan()}
	loanTerms := "Loan amount: 8192.0 DAI\nDuration: 120 days\nInterest: 6.3072%"

	tests := []struct {
		name  string
		event model.Event
		prior *model.TermsEvent
		want  string
	}{
		{
			name:  "create",
			event: model.CreateEvent{EventBase: base, Creator: testBorrower},
			want: "0x0dd7d has created a loan with the following collateral: monarchs #192\n\n" +
				"Their desired loan terms are:\n" + loanTerms + testBotLinks,
		},
		{
			name:  "lend",
			event: model.LendEvent{EventBase: base, Lender: testOldLender},
			want:  "Loan #65: monarchs has been lent to by 0x10359\nTheir loan terms are:\n" + loanTerms + testBotLinks,
		},
		{
			name:  "lend suppressed by prior terms",
			event: model.LendEvent{EventBase: base, Lender: testOldLender},
			prior: testPriorTerms(testLendTimestamp),
			want:  "",
		},
		{
			name:  "buyout",
			event: model.BuyoutEvent{EventBase: base, NewLender: testNewLender, LendTicketHolder: testOldLender, InterestEarned: "10000"},
			prior: testPriorTerms(testNow - 2*86400),
			want: "Loan #65: monarchs has been bought out by 0x7e646\n" +
				"0x10359 held the loan for 2 days and earned 0.00000000000001 DAI over that time\n\n" +
				"The old terms set by 0x10359 were:\n" +
				"Loan amount: 8000.0 DAI\nDuration: 120 days\nInterest: 6.3072%" +
				"\n\nThe new terms set by 0x7e646 are:\n" + loanTerms + testBotLinks,
		},
		{
			name:  "repayment",
			event: model.RepaymentEvent{EventBase: base, Repayer: testBorrower, LendTicketHolder: testOldLender, InterestEarned: "41959555072000000000"},
			want: "Loan #65: monarchs has been repaid by 0x0dd7d\n" +
				"0x10359 held the loan for 29 days and earned 41.959555072 DAI over that time\n\n" +
				"The loan terms were:\n" + loanTerms + testBotLinks,
		},
		{
			name:  "collateral seizure",
			event: model.CollateralSeizureEvent{EventBase: base, LendTicketHolder: testOldLender, BorrowTicketHolder: testBorrower},
			want: "Loan #65: monarchs has had its collateral seized\n" +
				"0x10359 held the loan for 29 days. The loan became due on 06/14/2022 with a repayment cost of 8361.869312 DAI. " +
				"0x0dd7d did not repay, so 0x10359 was able to seize the loan's collateral" + testBotLinks,
		},
		{
			name:  "expiry events are not announced",
			event: model.LiquidationOccurred{RawLoan: testRawLoan()},
			want:  "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := newTestDiscordFormatter().Format(context.Background(), tt.event, testNow, tt.prior)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscordFormatter_BuyoutWithoutPriorTerms(t *testing.T) {
	t.Parallel()

	ev := model.BuyoutEvent{
		EventBase:        model.EventBase{ID: testTxHash, Timestamp: testNow, Loan: testRawLoan()},
		NewLender:        testNewLender,
		LendTicketHolder: testOldLender,
	}

	_, err := newTestDiscordFormatter().Format(context.Background(), ev, testNow, nil)
	assert.ErrorIs(t, err, apperror.ErrDataIntegrity)
}
