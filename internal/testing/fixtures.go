// Package testing provides shared fixtures for crivo package tests.
package testing

import (
	"time"

	"github.com/rmaragno/crivo/internal/domain"
)

// NewBundleFixture returns a complete, internally consistent analysis bundle
// for a mid-size industrial company. The newest period uses the canonical
// balanced sheet (assets 32.21M = liabilities 20.13M + equity 12.08M) so
// structure ratios always compute.
func NewBundleFixture() domain.AnalysisBundle {
	constitution := time.Date(2009, 5, 12, 0, 0, 0, 0, time.UTC)
	since := time.Date(2018, 2, 1, 0, 0, 0, 0, time.UTC)

	return domain.AnalysisBundle{
		CompanyID: "BR-77.431.002",
		Registration: domain.Registration{
			LegalName:        "Metalcorte Industria Ltda",
			TaxID:            "77.431.002/0001-55",
			ConstitutionDate: &constitution,
			ShareCapital:     5_000_000,
			PartnersVerified: true,
		},
		Compliance: domain.Compliance{
			Restrictions:   0,
			Protests:       0,
			LawsuitsAmount: 0,
			TaxClearance:   true,
		},
		Periods: []domain.Period{
			NewPeriodFixture(2023, 0.88),
			NewPeriodFixture(2024, 0.94),
			NewPeriodFixture(2025, 1.0),
		},
		Debts: domain.DebtProfile{
			Loans: []domain.LoanRecord{
				{Institution: "Banco Alfa", Balance: 4_200_000, MonthlyPayment: 96_000, AnnualRate: 0.145},
				{Institution: "Banco Beta", Balance: 1_600_000, MonthlyPayment: 41_000, AnnualRate: 0.168},
			},
			PayablesTotal:        6_400_000,
			PayablesOverdue90:    64_000,
			ReceivablesTotal:     8_050_000,
			ReceivablesOverdue90: 120_000,
		},
		Concentration: domain.Concentration{
			TopCustomerShare:  0.18,
			Top5CustomerShare: 0.46,
			TopSupplierShare:  0.22,
		},
		Collateral: domain.Collateral{
			Type:  "real_estate",
			Value: 9_000_000,
		},
		Relationship: domain.Relationship{
			SinceDate:     &since,
			DefaultEvents: 0,
		},
		RequestedLine: 3_000_000,
	}
}

// NewPeriodFixture builds one period scaled by factor. factor=1.0 yields the
// canonical 2025 figures; earlier years use smaller factors so CAGR and
// trend metrics have a genuine upward series to work with.
func NewPeriodFixture(year int, factor float64) domain.Period {
	inventory := 4_830_000 * factor
	operating := 3_520_000 * factor

	return domain.Period{
		Year: year,
		Balance: domain.BalanceSheet{
			Cash:                  2_415_000 * factor,
			Receivables:           8_050_000 * factor,
			Inventory:             &inventory,
			OtherCurrentAssets:    805_000 * factor,
			CurrentAssets:         16_100_000 * factor,
			LongTermReceivables:   1_610_000 * factor,
			FixedAssets:           12_890_000 * factor,
			OtherNonCurrentAssets: 1_610_000 * factor,
			NonCurrentAssets:      16_110_000 * factor,
			TotalAssets:           32_210_000 * factor,
			Suppliers:             6_400_000 * factor,
			CurrentLiabilities:    9_660_000 * factor,
			LongTermLiabilities:   10_470_000 * factor,
			TotalLiabilities:      20_130_000 * factor,
			Capital:               5_000_000,
			RetainedEarnings:      12_080_000*factor - 5_000_000,
			Equity:                12_080_000 * factor,
		},
		Income: domain.IncomeStatement{
			GrossRevenue:      34_000_000 * factor,
			Deductions:        5_800_000 * factor,
			NetRevenue:        28_200_000 * factor,
			COGS:              18_300_000 * factor,
			OperatingExpenses: 6_380_000 * factor,
			Depreciation:      940_000 * factor,
			OperatingIncome:   &operating,
			FinancialExpenses: 1_120_000 * factor,
			NetIncome:         1_790_000 * factor,
		},
	}
}
