package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/nftpawnshop/backend/internal/apperror"
	"github.com/nftpawnshop/backend/internal/model"
	"github.com/nftpawnshop/backend/pkg/datetime"
	"github.com/nftpawnshop/backend/pkg/fixedpoint"
)

// DiscordFormatter builds the public bot message announcing an event.
type DiscordFormatter struct {
	cfg      FormatterConfig
	parser   *LoanParser
	identity Identity
}

// NewDiscordFormatter creates a bot message formatter.
func NewDiscordFormatter(cfg FormatterConfig, parser *LoanParser, identity Identity) *DiscordFormatter {
	if parser == nil {
		parser = NewLoanParser(nil)
	}
	return &DiscordFormatter{cfg: cfg, parser: parser, identity: identity}
}

// Format returns the bot message for ev, or "" when the event is not
// announced. prior is the terms event preceding ev, as returned by
// EventFormatter.PriorTerms.
func (d *DiscordFormatter) Format(ctx context.Context, ev model.Event, now int64, prior *model.TermsEvent) (string, error) {
	var b strings.Builder

	switch e := ev.(type) {
	case model.CreateEvent:
		loan, err := d.parser.ParseAt(e.Loan, now)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s has created a loan with the following collateral: %s #%s\n\n",
			d.name(ctx, e.Creator), e.Loan.CollateralName, e.Loan.CollateralTokenID)
		b.WriteString("Their desired loan terms are:\n")
		b.WriteString(botTerms(loan.Terms))

	case model.LendEvent:
		if prior != nil {
			return "", nil
		}
		loan, err := d.parser.ParseAt(e.Loan, now)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "Loan #%s: %s has been lent to by %s\n", e.Loan.ID, e.Loan.CollateralName, d.name(ctx, e.Lender))
		b.WriteString("Their loan terms are:\n")
		b.WriteString(botTerms(loan.Terms))

	case model.BuyoutEvent:
		if prior == nil {
			return "", apperror.DataIntegrity(fmt.Sprintf("buyout on loan %s has no prior terms", e.Loan.ID))
		}
		loan, err := d.parser.ParseAt(e.Loan, now)
		if err != nil {
			return "", err
		}
		priorTerms, err := ParseTerms(prior, loan.Terms.LoanAssetDecimals, loan.Terms.LoanAssetSymbol)
		if err != nil {
			return "", err
		}
		interestEarned, err := parseEventAmount(e.Loan.ID, "interestEarned", e.InterestEarned)
		if err != nil {
			return "", err
		}
		newLender := d.name(ctx, e.NewLender)
		oldLender := d.name(ctx, e.LendTicketHolder)

		fmt.Fprintf(&b, "Loan #%s: %s has been bought out by %s\n", e.Loan.ID, e.Loan.CollateralName, newLender)
		fmt.Fprintf(&b, "%s held the loan for %s and earned %s over that time\n\n",
			oldLender, datetime.FormattedDuration(e.Timestamp-prior.Timestamp), formatAmount(interestEarned, loan.Terms))
		fmt.Fprintf(&b, "The old terms set by %s were:\n", oldLender)
		b.WriteString(botTerms(priorTerms))
		fmt.Fprintf(&b, "\n\nThe new terms set by %s are:\n", newLender)
		b.WriteString(botTerms(loan.Terms))

	case model.RepaymentEvent:
		loan, err := d.parser.ParseAt(e.Loan, now)
		if err != nil {
			return "", err
		}
		interestEarned, err := parseEventAmount(e.Loan.ID, "interestEarned", e.InterestEarned)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "Loan #%s: %s has been repaid by %s\n", e.Loan.ID, e.Loan.CollateralName, d.name(ctx, e.Repayer))
		fmt.Fprintf(&b, "%s held the loan for %s and earned %s over that time\n\n",
			d.name(ctx, firstNonEmpty(e.LendTicketHolder, e.Loan.LendTicketHolder)),
			datetime.FormattedDuration(e.Timestamp-loan.LastAccumulatedTimestamp),
			formatAmount(interestEarned, loan.Terms))
		b.WriteString("The loan terms were:\n")
		b.WriteString(botTerms(loan.Terms))

	case model.CollateralSeizureEvent:
		loan, err := d.parser.ParseAt(e.Loan, now)
		if err != nil {
			return "", err
		}
		lender := d.name(ctx, firstNonEmpty(e.LendTicketHolder, e.Loan.LendTicketHolder))
		borrower := d.name(ctx, firstNonEmpty(e.BorrowTicketHolder, e.Loan.BorrowTicketHolder))

		fmt.Fprintf(&b, "Loan #%s: %s has had its collateral seized\n", e.Loan.ID, e.Loan.CollateralName)
		fmt.Fprintf(&b, "%s held the loan for %s. The loan became due on %s with a repayment cost of %s. "+
			"%s did not repay, so %s was able to seize the loan's collateral",
			lender,
			datetime.FormattedDuration(e.Timestamp-loan.LastAccumulatedTimestamp),
			datetime.FormattedDate(loan.EndDateTimestamp),
			formatAmount(loan.EstimatedRepayment, loan.Terms),
			borrower, lender)

	default:
		return "", nil
	}

	fmt.Fprintf(&b, "\n\nLoan: <%s/loans/%s>", d.cfg.SiteURL, ev.LoanRecord().ID)
	fmt.Fprintf(&b, "\nEvent Tx: <%s/tx/%s>", d.cfg.ExplorerURL, ev.TxHash())
	return b.String(), nil
}

func (d *DiscordFormatter) name(ctx context.Context, address string) string {
	if d.identity == nil {
		return TruncateAddress(address)
	}
	return d.identity.EnsOrAddr(ctx, address)
}

func botTerms(terms model.LoanTerms) string {
	return fmt.Sprintf("Loan amount: %s\nDuration: %s\nInterest: %s%%",
		formatAmount(terms.LoanAmount, terms),
		datetime.FormattedDuration(terms.DurationSeconds),
		fixedpoint.FormattedAnnualRate(terms.PerSecondInterestRate))
}
