// Package domain contains the core data model for credit analysis.
// The domain layer is pure: no infrastructure dependencies, only data
// structures and the invariants they carry.
package domain

// BalanceSheet is one period's balance sheet snapshot.
//
// All totals are required and must be populated by the data source.
// Inventory is the one explicitly optional account: service companies
// legitimately carry none, so a nil Inventory is documented to mean zero.
// No other field may be defaulted when absent.
type BalanceSheet struct {
	// Current (circulating) assets
	Cash               float64  `json:"cash"`
	Receivables        float64  `json:"receivables"`
	Inventory          *float64 `json:"inventory,omitempty"` // optional; nil means no inventory account
	OtherCurrentAssets float64  `json:"other_current_assets"`
	CurrentAssets      float64  `json:"current_assets"`

	// Non-current assets
	LongTermReceivables   float64 `json:"long_term_receivables"`
	FixedAssets           float64 `json:"fixed_assets"`
	OtherNonCurrentAssets float64 `json:"other_non_current_assets"`
	NonCurrentAssets      float64 `json:"non_current_assets"`

	TotalAssets float64 `json:"total_assets"`

	// Liabilities
	Suppliers           float64 `json:"suppliers"`
	CurrentLiabilities  float64 `json:"current_liabilities"`
	LongTermLiabilities float64 `json:"long_term_liabilities"`
	TotalLiabilities    float64 `json:"total_liabilities"`

	// Equity sub-accounts
	Capital          float64 `json:"capital"`
	RetainedEarnings float64 `json:"retained_earnings"`
	Equity           float64 `json:"equity"`
}

// InventoryOrZero returns the inventory balance, treating the documented
// optional absence as zero.
func (b *BalanceSheet) InventoryOrZero() float64 {
	if b.Inventory == nil {
		return 0
	}
	return *b.Inventory
}

// WorkingCapital returns current assets minus current liabilities.
func (b *BalanceSheet) WorkingCapital() float64 {
	return b.CurrentAssets - b.CurrentLiabilities
}

// IncomeStatement is one period's income statement.
//
// OperatingIncome is optional on purpose: smaller companies report a
// simplified statement without it. Consumers that need EBIT must treat its
// absence as a labeled degraded mode, never as a silent substitution.
type IncomeStatement struct {
	GrossRevenue      float64  `json:"gross_revenue"`
	Deductions        float64  `json:"deductions"`
	NetRevenue        float64  `json:"net_revenue"`
	COGS              float64  `json:"cogs"`
	OperatingExpenses float64  `json:"operating_expenses"`
	Depreciation      float64  `json:"depreciation"`
	OperatingIncome   *float64 `json:"operating_income,omitempty"` // optional; absence triggers degraded EBIT mode
	FinancialExpenses float64  `json:"financial_expenses"`
	NetIncome         float64  `json:"net_income"`
}

// GrossProfit returns net revenue minus cost of goods sold.
func (i *IncomeStatement) GrossProfit() float64 {
	return i.NetRevenue - i.COGS
}

// EBITDA returns operating income plus depreciation when operating income is
// reported. When it is not, the degraded fallback adds financial expenses
// and depreciation back onto net income; the second return value reports
// whether the fallback was used.
func (i *IncomeStatement) EBITDA() (float64, bool) {
	if i.OperatingIncome != nil {
		return *i.OperatingIncome + i.Depreciation, false
	}
	return i.NetIncome + i.FinancialExpenses + i.Depreciation, true
}

// EBIT returns operating income when reported, or net income as the
// documented degraded fallback. The second return value is true when the
// fallback was used.
func (i *IncomeStatement) EBIT() (float64, bool) {
	if i.OperatingIncome != nil {
		return *i.OperatingIncome, false
	}
	return i.NetIncome, true
}

// Period is one fiscal year snapshot of both statements.
type Period struct {
	Year    int             `json:"year"`
	Balance BalanceSheet    `json:"balance_sheet"`
	Income  IncomeStatement `json:"income_statement"`
}
