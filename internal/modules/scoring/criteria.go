package scoring

import (
	"time"

	"github.com/rmaragno/crivo/internal/domain"
	"github.com/rmaragno/crivo/internal/modules/debt"
	"github.com/rmaragno/crivo/internal/modules/indices"
)

func (c *Calculator) registration(bundle domain.AnalysisBundle) CategoryScore {
	cat := &categoryBuilder{name: "registration", points: c.policy.Points.Registration}

	// age criteria use the calendar day, not the wall clock, so repeated
	// runs over unchanged data score identically within a day
	now := c.now().UTC().Truncate(24 * time.Hour)

	c.score(cat, "time_in_business", domain.Float(yearsSince(*bundle.Registration.ConstitutionDate, now)))
	c.score(cat, "compliance_restrictions", domain.Float(float64(bundle.Compliance.Restrictions+bundle.Compliance.Protests)))
	c.score(cat, "tax_clearance", boolValue(bundle.Compliance.TaxClearance))
	c.score(cat, "registration_completeness", domain.Float(completeness(bundle.Registration)))

	var relationship *float64
	if bundle.Relationship.SinceDate != nil {
		relationship = domain.Float(yearsSince(*bundle.Relationship.SinceDate, now))
	}
	c.score(cat, "relationship_length", relationship)

	return cat.build()
}

func (c *Calculator) financial(idx *indices.Result) CategoryScore {
	cat := &categoryBuilder{name: "financial", points: c.policy.Points.Financial}

	c.score(cat, "net_margin", idx.Profitability.NetMargin.Value)
	c.score(cat, "roe", idx.Profitability.ROE.Value)
	c.score(cat, "revenue_growth", idx.Evolution.RevenueCAGR)
	c.score(cat, "current_liquidity", idx.Liquidity.Current.Value)
	c.score(cat, "z_score_zone", idx.ZScore.Z)

	return cat.build()
}

func (c *Calculator) paymentCapacity(bundle domain.AnalysisBundle, idx *indices.Result, dbt *debt.Result) CategoryScore {
	cat := &categoryBuilder{name: "payment_capacity", points: c.policy.Points.PaymentCapacity}

	c.score(cat, "interest_coverage", dbt.InterestCoverage.Value)
	c.score(cat, "ebitda_margin", idx.Profitability.EBITDAMargin.Value)

	// computed cash cycle is preferred; observed cycle figures from the
	// analyst fill in when the statements were too thin to compute one
	cash := idx.Activity.CashCycle.Value
	if cash == nil {
		cash = observedCashCycle(bundle.Cycles)
	}
	c.score(cat, "cash_cycle", cash)

	c.score(cat, "receivables_delinquency", dbt.ReceivablesDelinquency.Value)

	return cat.build()
}

func (c *Calculator) leverage(idx *indices.Result, dbt *debt.Result) CategoryScore {
	cat := &categoryBuilder{name: "leverage", points: c.policy.Points.Leverage}

	c.score(cat, "debt_to_equity", idx.Structure.DebtToEquity.Value)
	c.score(cat, "short_term_share", dbt.ShortTermShare.Value)
	c.score(cat, "asset_leverage", dbt.AssetLeverage.Value)
	c.score(cat, "payables_delinquency", dbt.PayablesDelinquency.Value)

	return cat.build()
}

func (c *Calculator) structureConcentration(bundle domain.AnalysisBundle, idx *indices.Result) CategoryScore {
	cat := &categoryBuilder{name: "structure_concentration", points: c.policy.Points.StructureConcentration}

	c.score(cat, "customer_concentration", domain.Float(bundle.Concentration.TopCustomerShare))
	c.score(cat, "supplier_concentration", domain.Float(bundle.Concentration.TopSupplierShare))
	c.score(cat, "collateral_coverage", domain.Ratio(bundle.Collateral.Value, bundle.RequestedLine))

	operating := idx.Activity.OperatingCycle.Value
	if operating == nil {
		operating = observedOperatingCycle(bundle.Cycles)
	}
	c.score(cat, "operating_cycle", operating)

	return cat.build()
}

func yearsSince(from, now time.Time) float64 {
	return now.Sub(from).Hours() / (24 * 365.25)
}

func boolValue(b bool) *float64 {
	if b {
		return domain.Float(1)
	}
	return domain.Float(0)
}

// completeness is the filled fraction of the registration fields the score
// cares about: legal name, tax id, positive share capital, verified partners.
func completeness(r domain.Registration) float64 {
	filled := 0.0
	if r.LegalName != "" {
		filled++
	}
	if r.TaxID != "" {
		filled++
	}
	if r.ShareCapital > 0 {
		filled++
	}
	if r.PartnersVerified {
		filled++
	}
	return filled / 4
}

func observedCashCycle(cy domain.Cycles) *float64 {
	if cy.ReceivableDays == nil || cy.InventoryDays == nil || cy.PayableDays == nil {
		return nil
	}
	return domain.Float(*cy.ReceivableDays + *cy.InventoryDays - *cy.PayableDays)
}

func observedOperatingCycle(cy domain.Cycles) *float64 {
	if cy.ReceivableDays == nil || cy.InventoryDays == nil {
		return nil
	}
	return domain.Float(*cy.ReceivableDays + *cy.InventoryDays)
}
