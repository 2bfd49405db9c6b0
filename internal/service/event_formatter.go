package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/holiman/uint256"
	"github.com/nftpawnshop/backend/internal/apperror"
	"github.com/nftpawnshop/backend/internal/model"
	"github.com/nftpawnshop/backend/pkg/currency"
	"github.com/nftpawnshop/backend/pkg/datetime"
	"github.com/nftpawnshop/backend/pkg/fixedpoint"
)

// TermsLookup returns the most recent terms-setting event for a loan with a
// timestamp strictly before before, or nil when the loan was never funded
// before that time.
type TermsLookup interface {
	MostRecentTermsForLoan(ctx context.Context, loanID string, before int64) (*model.TermsEvent, error)
}

// Identity renders addresses for display.
type Identity interface {
	EnsOrAddr(ctx context.Context, address string) string
}

// FormatterConfig holds the link roots and scan window used in messages.
type FormatterConfig struct {
	SiteURL     string
	ExplorerURL string
	WindowHours int
}

// EventFormatter turns lifecycle events into per-recipient notification
// content. It holds no mutable state and is safe for concurrent use.
type EventFormatter struct {
	cfg      FormatterConfig
	parser   *LoanParser
	identity Identity
	terms    TermsLookup
}

// NewEventFormatter creates a formatter.
func NewEventFormatter(cfg FormatterConfig, parser *LoanParser, identity Identity, terms TermsLookup) *EventFormatter {
	if parser == nil {
		parser = NewLoanParser(nil)
	}
	return &EventFormatter{cfg: cfg, parser: parser, identity: identity, terms: terms}
}

// ComputeSubjectAndComponents formats ev as of now. A nil notification with a
// nil error means the event produces no user notifications.
func (f *EventFormatter) ComputeSubjectAndComponents(ctx context.Context, ev model.Event, now int64) (*model.Notification, error) {
	prior, err := f.PriorTerms(ctx, ev)
	if err != nil {
		return nil, err
	}
	return f.Format(ctx, ev, now, prior)
}

// PriorTerms fetches the terms in force before ev for the variants that need
// them. Other variants return nil without a lookup.
func (f *EventFormatter) PriorTerms(ctx context.Context, ev model.Event) (*model.TermsEvent, error) {
	var before int64
	switch e := ev.(type) {
	case model.LendEvent:
		before = e.Timestamp
	case model.BuyoutEvent:
		before = e.Timestamp
	case model.CollateralSeizureEvent:
		before = e.Timestamp
	default:
		return nil, nil
	}
	if f.terms == nil {
		return nil, nil
	}

	prior, err := f.terms.MostRecentTermsForLoan(ctx, ev.LoanRecord().ID, before)
	if err != nil {
		return nil, apperror.Upstream(err, "failed to look up prior loan terms")
	}
	return prior, nil
}

// Format formats ev with an already resolved prior terms event.
func (f *EventFormatter) Format(ctx context.Context, ev model.Event, now int64, prior *model.TermsEvent) (*model.Notification, error) {
	switch e := ev.(type) {
	case model.CreateEvent:
		return nil, nil
	case model.LendEvent:
		// A buyout emits a LendEvent too. Only the first funding is announced.
		if prior != nil {
			return nil, nil
		}
		return f.lend(ctx, e, now)
	case model.BuyoutEvent:
		return f.buyout(ctx, e, now, prior)
	case model.RepaymentEvent:
		return f.repayment(ctx, e, now)
	case model.CollateralSeizureEvent:
		return f.seizure(ctx, e, now, prior)
	case model.LiquidationOccurring:
		return f.liquidationOccurring(ctx, e, now)
	case model.LiquidationOccurred:
		return f.liquidationOccurred(ctx, e, now)
	default:
		return nil, fmt.Errorf("%w: %T", model.ErrUnknownEventType, ev)
	}
}

// Subject returns the subject line for an event type and loan.
func Subject(t model.EventType, loanID string) string {
	switch t {
	case model.EventTypeLend:
		return fmt.Sprintf("Loan #%s has been fulfilled", loanID)
	case model.EventTypeBuyout:
		return fmt.Sprintf("Loan #%s has a new lender", loanID)
	case model.EventTypeRepayment:
		return fmt.Sprintf("Loan #%s has been repaid", loanID)
	case model.EventTypeCollateralSeizure:
		return fmt.Sprintf("Loan #%s collateral has been seized", loanID)
	case model.EventTypeLiquidationOccurring:
		return fmt.Sprintf("Loan #%s is approaching due", loanID)
	case model.EventTypeLiquidationOccurred:
		return fmt.Sprintf("Loan #%s is past due", loanID)
	default:
		return ""
	}
}

func (f *EventFormatter) lend(ctx context.Context, e model.LendEvent, now int64) (*model.Notification, error) {
	loan, err := f.parser.ParseAt(e.Loan, now)
	if err != nil {
		return nil, err
	}
	borrower := firstNonEmpty(e.BorrowTicketHolder, e.Loan.BorrowTicketHolder)
	borrowerName := f.name(ctx, borrower)
	lenderName := f.name(ctx, e.Lender)

	main := fmt.Sprintf("The loan created by %s has been lent to by %s", borrowerName, lenderName)
	body := content{
		terms: []model.FormattedTerms{
			formattedLoanTerms(fmt.Sprintf("%s lent at terms:", lenderName), loan.Terms),
		},
		after: []string{
			fmt.Sprintf("At this rate, repayment of %s will be due on %s",
				formatAmount(loan.EstimatedRepayment, loan.Terms),
				datetime.FormattedDate(loan.EndDateTimestamp)),
		},
	}
	return f.notification(e.EventType(), e.Loan, e.TxHash(), body,
		recipient{borrower, main},
		recipient{e.Lender, main},
	), nil
}

func (f *EventFormatter) buyout(ctx context.Context, e model.BuyoutEvent, now int64, prior *model.TermsEvent) (*model.Notification, error) {
	if prior == nil {
		return nil, apperror.DataIntegrity(fmt.Sprintf("buyout on loan %s has no prior terms", e.Loan.ID))
	}
	loan, err := f.parser.ParseAt(e.Loan, now)
	if err != nil {
		return nil, err
	}
	priorTerms, err := ParseTerms(prior, loan.Terms.LoanAssetDecimals, loan.Terms.LoanAssetSymbol)
	if err != nil {
		return nil, err
	}
	interestEarned, err := parseEventAmount(e.Loan.ID, "interestEarned", e.InterestEarned)
	if err != nil {
		return nil, err
	}
	newTerms := loan.Terms
	if e.LoanAmount != "" {
		if newTerms.LoanAmount, err = parseEventAmount(e.Loan.ID, "loanAmount", e.LoanAmount); err != nil {
			return nil, err
		}
	}

	borrower := firstNonEmpty(e.BorrowTicketHolder, e.Loan.BorrowTicketHolder)
	borrowerName := f.name(ctx, borrower)
	oldLenderName := f.name(ctx, e.LendTicketHolder)
	newLenderName := f.name(ctx, e.NewLender)

	body := content{
		before: []string{
			fmt.Sprintf("%s held the loan for %s and accrued %s in interest over that period.",
				oldLenderName,
				datetime.FormattedDuration(e.Timestamp-prior.Timestamp),
				formatAmount(interestEarned, loan.Terms)),
		},
		terms: []model.FormattedTerms{
			formattedLoanTerms("Their loan terms were:", priorTerms),
			formattedLoanTerms(fmt.Sprintf("The new terms set by %s are:", newLenderName), newTerms),
		},
		after: []string{
			fmt.Sprintf("At this rate, repayment of %s will be due on %s.",
				formatAmount(loan.EstimatedRepayment, loan.Terms),
				datetime.FormattedDate(loan.EndDateTimestamp)),
		},
	}
	return f.notification(e.EventType(), e.Loan, e.TxHash(), body,
		recipient{borrower, fmt.Sprintf("The loan created by %s has been bought out with new terms.", borrowerName)},
		recipient{e.LendTicketHolder, fmt.Sprintf("%s has been replaced as the lender on loan #%s.", oldLenderName, e.Loan.ID)},
		recipient{e.NewLender, fmt.Sprintf("%s replaced %s as lender.", newLenderName, oldLenderName)},
	), nil
}

func (f *EventFormatter) repayment(ctx context.Context, e model.RepaymentEvent, now int64) (*model.Notification, error) {
	loan, err := f.parser.ParseAt(e.Loan, now)
	if err != nil {
		return nil, err
	}
	interestEarned, err := parseEventAmount(e.Loan.ID, "interestEarned", e.InterestEarned)
	if err != nil {
		return nil, err
	}
	lender := firstNonEmpty(e.LendTicketHolder, e.Loan.LendTicketHolder)
	borrower := firstNonEmpty(e.BorrowTicketHolder, e.Loan.BorrowTicketHolder)
	lenderName := f.name(ctx, lender)

	token := assetToken(loan.Terms)
	interest := currency.NewAmount(interestEarned, token)
	totalCost, err := currency.NewAmount(loan.Terms.LoanAmount, token).Add(interest)
	if err != nil {
		return nil, apperror.DataIntegrity(fmt.Sprintf("repayment on loan %s: %v", e.Loan.ID, err))
	}
	main := fmt.Sprintf("%s repaid the loan", f.name(ctx, e.Repayer))
	body := content{
		terms: []model.FormattedTerms{
			formattedLoanTerms(fmt.Sprintf("%s held the loan for %s, with loan terms:",
				lenderName, datetime.FormattedDuration(e.Timestamp-loan.LastAccumulatedTimestamp)), loan.Terms),
		},
		after: []string{
			fmt.Sprintf("They accrued %s over that period.", interest),
			fmt.Sprintf("The total cost to repay was %s.", totalCost),
		},
	}
	return f.notification(e.EventType(), e.Loan, e.TxHash(), body,
		recipient{borrower, main},
		recipient{lender, main},
	), nil
}

func (f *EventFormatter) seizure(ctx context.Context, e model.CollateralSeizureEvent, now int64, prior *model.TermsEvent) (*model.Notification, error) {
	if prior == nil {
		return nil, apperror.DataIntegrity(fmt.Sprintf("collateral seizure on loan %s has no prior terms", e.Loan.ID))
	}
	loan, err := f.parser.ParseAt(e.Loan, now)
	if err != nil {
		return nil, err
	}
	lender := firstNonEmpty(e.LendTicketHolder, e.Loan.LendTicketHolder)
	borrower := firstNonEmpty(e.BorrowTicketHolder, e.Loan.BorrowTicketHolder)
	lenderName := f.name(ctx, lender)
	borrowerName := f.name(ctx, borrower)

	main := fmt.Sprintf("Lender %s has seized the collateral NFT on Loan #%s", lenderName, e.Loan.ID)
	body := content{
		terms: []model.FormattedTerms{
			formattedLoanTerms(fmt.Sprintf("%s held the loan for %s at terms:",
				lenderName, datetime.FormattedDuration(e.Timestamp-prior.Timestamp)), loan.Terms),
		},
		after: []string{
			fmt.Sprintf("The loan became due on %s with a repayment cost of %s.",
				datetime.FormattedDate(loan.EndDateTimestamp),
				formatAmount(loan.EstimatedRepayment, loan.Terms)),
			fmt.Sprintf("Borrower %s did not repay, so %s was able to seize the collateral NFT on %s.",
				borrowerName, lenderName, datetime.FormattedDate(e.Timestamp)),
		},
	}
	return f.notification(e.EventType(), e.Loan, e.TxHash(), body,
		recipient{borrower, main},
		recipient{lender, main},
	), nil
}

func (f *EventFormatter) liquidationOccurring(ctx context.Context, e model.LiquidationOccurring, now int64) (*model.Notification, error) {
	loan, err := f.parser.ParseAt(e.RawLoan, now)
	if err != nil {
		return nil, err
	}
	if e.LendTicketHolder == "" {
		return nil, apperror.DataIntegrity(fmt.Sprintf("loan %s approaching due has no lender", e.ID))
	}
	lenderName := f.name(ctx, e.LendTicketHolder)

	main := fmt.Sprintf("This loan will be due in %d hours", f.cfg.WindowHours)
	body := content{
		terms: []model.FormattedTerms{
			formattedLoanTerms(fmt.Sprintf("%s held the loan for %s, with loan terms:",
				lenderName, datetime.FormattedDuration(now-loan.LastAccumulatedTimestamp)), loan.Terms),
		},
		after: []string{
			fmt.Sprintf("They accrued %s over that period.", formatAmount(loan.InterestOwed, loan.Terms)),
			fmt.Sprintf("At this rate, repayment of %s will be due on %s",
				formatAmount(loan.EstimatedRepayment, loan.Terms),
				datetime.FormattedDate(loan.EndDateTimestamp)),
		},
	}
	return f.notification(e.EventType(), e.RawLoan, e.TxHash(), body,
		recipient{e.BorrowTicketHolder, main},
		recipient{e.LendTicketHolder, main},
	), nil
}

func (f *EventFormatter) liquidationOccurred(ctx context.Context, e model.LiquidationOccurred, now int64) (*model.Notification, error) {
	loan, err := f.parser.ParseAt(e.RawLoan, now)
	if err != nil {
		return nil, err
	}
	if e.LendTicketHolder == "" {
		return nil, apperror.DataIntegrity(fmt.Sprintf("loan %s past due has no lender", e.ID))
	}
	lenderName := f.name(ctx, e.LendTicketHolder)
	borrowerName := f.name(ctx, e.BorrowTicketHolder)

	repayment := loan.EstimatedRepayment
	accrued := new(uint256.Int).Sub(repayment, loan.Terms.LoanAmount)
	main := "The loan is past due, and its NFT collateral may be seized."
	body := content{
		terms: []model.FormattedTerms{
			formattedLoanTerms(fmt.Sprintf("%s held the loan for %s, with loan terms:",
				lenderName, datetime.FormattedDuration(loan.EndDateTimestamp-loan.LastAccumulatedTimestamp)), loan.Terms),
		},
		after: []string{
			fmt.Sprintf("They accrued %s.", formatAmount(accrued, loan.Terms)),
			fmt.Sprintf("The loan became due on %s with a repayment cost of %s",
				datetime.FormattedDate(loan.EndDateTimestamp), formatAmount(repayment, loan.Terms)),
			fmt.Sprintf("Unless borrower %s repays, %s may seize the collateral NFT.", borrowerName, lenderName),
		},
	}
	return f.notification(e.EventType(), e.RawLoan, e.TxHash(), body,
		recipient{e.BorrowTicketHolder, main},
		recipient{e.LendTicketHolder, main},
	), nil
}

type recipient struct {
	address     string
	mainMessage string
}

// content is the recipient-invariant part of a notification.
type content struct {
	before []string
	terms  []model.FormattedTerms
	after  []string
}

func (f *EventFormatter) notification(t model.EventType, loan model.RawLoan, txHash string, body content, recipients ...recipient) *model.Notification {
	header := fmt.Sprintf("Loan #%s: %s", loan.ID, loan.CollateralName)
	viewLinks := []string{fmt.Sprintf("%s/loans/%s", f.cfg.SiteURL, loan.ID), ""}
	if txHash != "" {
		viewLinks[1] = fmt.Sprintf("%s/tx/%s", f.cfg.ExplorerURL, txHash)
	}

	n := &model.Notification{
		EventType:  t,
		Subject:    Subject(t, loan.ID),
		Components: make(map[string]*model.NotificationComponents, len(recipients)),
	}
	for _, r := range recipients {
		if r.address == "" {
			continue
		}
		n.Components[r.address] = &model.NotificationComponents{
			Header:             header,
			MainMessage:        r.mainMessage,
			MessageBeforeTerms: cloneOrEmpty(body.before),
			Terms:              cloneOrEmpty(body.terms),
			MessageAfterTerms:  cloneOrEmpty(body.after),
			ViewLinks:          slices.Clone(viewLinks),
			Footer:             fmt.Sprintf("%s/profile/%s", f.cfg.SiteURL, r.address),
		}
	}
	return n
}

func (f *EventFormatter) name(ctx context.Context, address string) string {
	if f.identity == nil {
		return TruncateAddress(address)
	}
	return f.identity.EnsOrAddr(ctx, address)
}

func formattedLoanTerms(prefix string, terms model.LoanTerms) model.FormattedTerms {
	return model.FormattedTerms{
		Prefix:   prefix,
		Amount:   formatAmount(terms.LoanAmount, terms),
		Duration: datetime.FormattedDuration(terms.DurationSeconds),
		Interest: fixedpoint.FormattedAnnualRate(terms.PerSecondInterestRate) + "%",
	}
}

func assetToken(terms model.LoanTerms) currency.Token {
	return currency.Token{Symbol: terms.LoanAssetSymbol, Decimals: terms.LoanAssetDecimals}
}

func formatAmount(raw *uint256.Int, terms model.LoanTerms) string {
	return currency.NewAmount(raw, assetToken(terms)).Format()
}

func parseEventAmount(loanID, field string, v model.Numeric) (*uint256.Int, error) {
	if v == "" {
		return new(uint256.Int), nil
	}
	n, err := fixedpoint.Parse(v.String())
	if err != nil {
		return nil, apperror.DataIntegrity(fmt.Sprintf("loan %s: invalid %s %q", loanID, field, v))
	}
	return n, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func cloneOrEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return []T{}
	}
	return slices.Clone(s)
}
