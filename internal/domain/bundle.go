package domain

import "time"

// Registration holds the company registration data entered by the analyst.
// ConstitutionDate is structurally required: time-in-business scoring cannot
// run without it and its absence is a hard error, not a default.
type Registration struct {
	LegalName        string     `json:"legal_name"`
	TaxID            string     `json:"tax_id"`
	ConstitutionDate *time.Time `json:"constitution_date"`
	ShareCapital     float64    `json:"share_capital"`
	PartnersVerified bool       `json:"partners_verified"`
}

// Compliance aggregates restriction and clearance signals from bureau data.
type Compliance struct {
	Restrictions   int     `json:"restrictions"`
	Protests       int     `json:"protests"`
	LawsuitsAmount float64 `json:"lawsuits_amount"`
	TaxClearance   bool    `json:"tax_clearance"`
}

// LoanRecord is one outstanding loan as reported by the company or bureau.
type LoanRecord struct {
	Institution    string  `json:"institution"`
	Balance        float64 `json:"balance"`
	MonthlyPayment float64 `json:"monthly_payment"`
	AnnualRate     float64 `json:"annual_rate"`
}

// DebtProfile aggregates loan records and delinquency figures.
// Overdue amounts are the slices older than 90 days.
type DebtProfile struct {
	Loans                []LoanRecord `json:"loans"`
	PayablesTotal        float64      `json:"payables_total"`
	PayablesOverdue90    float64      `json:"payables_overdue_90"`
	ReceivablesTotal     float64      `json:"receivables_total"`
	ReceivablesOverdue90 float64      `json:"receivables_overdue_90"`
}

// TotalLoanBalance sums the outstanding balances of all loan records.
func (d *DebtProfile) TotalLoanBalance() float64 {
	total := 0.0
	for _, l := range d.Loans {
		total += l.Balance
	}
	return total
}

// Concentration carries customer and supplier concentration shares (0..1).
type Concentration struct {
	TopCustomerShare  float64 `json:"top_customer_share"`
	Top5CustomerShare float64 `json:"top5_customer_share"`
	TopSupplierShare  float64 `json:"top_supplier_share"`
}

// Cycles carries observed operating cycle figures when the analyst has them.
// All fields are optional; computed activity ratios are preferred and these
// serve only as sub-criterion inputs when statements are too thin.
type Cycles struct {
	ReceivableDays *float64 `json:"receivable_days,omitempty"`
	PayableDays    *float64 `json:"payable_days,omitempty"`
	InventoryDays  *float64 `json:"inventory_days,omitempty"`
}

// Collateral describes guarantees offered against the credit line.
type Collateral struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// Relationship describes the history between the company and the grantor.
type Relationship struct {
	SinceDate     *time.Time `json:"since_date,omitempty"`
	DefaultEvents int        `json:"default_events"`
}

// AnalysisBundle is the full data set one calculation run consumes, as
// returned by the data-source collaborator. Periods are ordered
// oldest to newest.
type AnalysisBundle struct {
	CompanyID     string        `json:"company_id"`
	Registration  Registration  `json:"registration"`
	Compliance    Compliance    `json:"compliance"`
	Periods       []Period      `json:"periods"`
	Debts         DebtProfile   `json:"debts"`
	Concentration Concentration `json:"concentration"`
	Cycles        Cycles        `json:"cycles"`
	Collateral    Collateral    `json:"collateral"`
	Relationship  Relationship  `json:"relationship"`
	RequestedLine float64       `json:"requested_line"`
}

// Latest returns the newest period. ok is false for an empty series.
func (b *AnalysisBundle) Latest() (Period, bool) {
	if len(b.Periods) == 0 {
		return Period{}, false
	}
	return b.Periods[len(b.Periods)-1], true
}
