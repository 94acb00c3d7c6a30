// Package scoring turns the computed indices and debt profile into the
// 0-100 weighted credit score and its AAA-D classification. Every criterion
// earns a tier on a policy ladder; the tier fraction times the criterion's
// point allocation gives its points, and category points never exceed the
// category weight.
package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmaragno/crivo/internal/domain"
	"github.com/rmaragno/crivo/internal/modules/debt"
	"github.com/rmaragno/crivo/internal/modules/indices"
	"github.com/rmaragno/crivo/internal/policy"
)

// Key identifies this calculator in orchestrator results.
const Key = "scoring"

// CriterionScore is one scored sub-criterion.
type CriterionScore struct {
	Name      string      `json:"name"`
	Value     *float64    `json:"value"`
	Tier      policy.Tier `json:"tier"`
	Points    float64     `json:"points"`
	MaxPoints float64     `json:"max_points"`
	// NoData marks criteria scored on the documented fallback tier
	// because their optional inputs were absent.
	NoData bool `json:"no_data,omitempty"`
}

// CategoryScore is one scored category.
type CategoryScore struct {
	Name     string           `json:"name"`
	Weight   float64          `json:"weight"`
	Points   float64          `json:"points"`
	Criteria []CriterionScore `json:"criteria"`
}

// Result is the full scoring output for one calculation run.
type Result struct {
	Total          float64        `json:"total"`
	Classification Classification `json:"classification"`

	Registration           CategoryScore `json:"registration"`
	Financial              CategoryScore `json:"financial"`
	PaymentCapacity        CategoryScore `json:"payment_capacity"`
	Leverage               CategoryScore `json:"leverage"`
	StructureConcentration CategoryScore `json:"structure_concentration"`

	// Alerts names every criterion in the critical tier;
	// Recommendations carries the matching remediation advice.
	Alerts          []string  `json:"alerts"`
	Recommendations []string  `json:"recommendations"`
	Timestamp       time.Time `json:"timestamp"`
}

// Categories returns the five categories in presentation order.
func (r *Result) Categories() []CategoryScore {
	return []CategoryScore{
		r.Registration,
		r.Financial,
		r.PaymentCapacity,
		r.Leverage,
		r.StructureConcentration,
	}
}

// Calculator computes the credit score from the bundle and the upstream
// calculator results.
type Calculator struct {
	policy *policy.Config
	log    zerolog.Logger
	now    func() time.Time
}

// New builds a scoring calculator.
func New(cfg *policy.Config, log zerolog.Logger) *Calculator {
	return &Calculator{
		policy: cfg,
		log:    log.With().Str("component", "scoring").Logger(),
		now:    time.Now,
	}
}

// Key implements the orchestrator calculator contract.
func (c *Calculator) Key() string { return Key }

// Dependencies implements the orchestrator calculator contract: scoring
// consumes the indices and debt results.
func (c *Calculator) Dependencies() []string { return []string{indices.Key, debt.Key} }

// Calculate implements the orchestrator calculator contract.
func (c *Calculator) Calculate(ctx context.Context, bundle domain.AnalysisBundle, prior map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, ok := prior[indices.Key].(*indices.Result)
	if !ok {
		return nil, fmt.Errorf("scoring requires the %s result", indices.Key)
	}
	dbt, ok := prior[debt.Key].(*debt.Result)
	if !ok {
		return nil, fmt.Errorf("scoring requires the %s result", debt.Key)
	}
	return c.Compute(bundle, idx, dbt)
}

// Compute scores every category and classifies the total.
func (c *Calculator) Compute(bundle domain.AnalysisBundle, idx *indices.Result, dbt *debt.Result) (*Result, error) {
	if bundle.Registration.ConstitutionDate == nil {
		return nil, &domain.ComputationError{
			Calculator: Key,
			Field:      "registration.constitution_date",
			Message:    "constitution date is required for time-in-business scoring",
		}
	}

	result := &Result{
		Registration:           c.registration(bundle),
		Financial:              c.financial(idx),
		PaymentCapacity:        c.paymentCapacity(bundle, idx, dbt),
		Leverage:               c.leverage(idx, dbt),
		StructureConcentration: c.structureConcentration(bundle, idx),
	}

	total := 0.0
	for _, cat := range result.Categories() {
		total += cat.Points
		for _, cs := range cat.Criteria {
			if cs.Tier == policy.TierCritical {
				result.Alerts = append(result.Alerts,
					fmt.Sprintf("%s: %s in critical tier", cat.Name, cs.Name))
				result.Recommendations = append(result.Recommendations, adviceFor(cs.Name))
			}
		}
	}
	result.Total = domain.Round2(total)
	result.Classification = Classify(c.policy, result.Total)
	result.Timestamp = c.now().UTC()

	c.log.Info().
		Str("company_id", bundle.CompanyID).
		Float64("score", result.Total).
		Str("classification", result.Classification.Rating).
		Int("alerts", len(result.Alerts)).
		Msg("credit score computed")

	return result, nil
}

// adviceFor returns the remediation advice attached to a critical criterion.
func adviceFor(criterion string) string {
	if advice, ok := criterionAdvice[criterion]; ok {
		return advice
	}
	return fmt.Sprintf("review the inputs behind %s before extending credit", criterion)
}

// criterionAdvice pairs each criterion with the recommendation surfaced
// when it lands in the critical tier.
var criterionAdvice = map[string]string{
	"time_in_business":          "treat as an early-stage company; require guarantees or a guarantor",
	"compliance_restrictions":   "clear outstanding restrictions and protests before approval",
	"tax_clearance":             "require a current tax clearance certificate",
	"registration_completeness": "complete the registration dossier before underwriting",
	"relationship_length":       "apply new-client limits until a track record exists",
	"net_margin":                "investigate cost structure; margins do not cover the risk",
	"roe":                       "returns do not remunerate equity; reassess the business plan",
	"revenue_growth":            "revenue is contracting; request an updated forecast",
	"current_liquidity":         "short-term obligations exceed liquid cover; shorten the exposure",
	"z_score_zone":              "insolvency indicators in the distress zone; decline or secure fully",
	"interest_coverage":         "operating cash does not cover interest; restructure before new credit",
	"ebitda_margin":             "operating generation is too thin to service additional debt",
	"cash_cycle":                "cash conversion is too slow; finance against receivables only",
	"receivables_delinquency":   "tighten collection; overdue receivables erode repayment capacity",
	"debt_to_equity":            "leverage is excessive; require capital reinforcement",
	"short_term_share":          "debt is concentrated short-term; lengthen maturities first",
	"asset_leverage":            "third parties finance most of the assets; limit further debt",
	"payables_delinquency":      "regularize overdue supplier payments before approval",
	"customer_concentration":    "revenue depends on few customers; cap exposure accordingly",
	"supplier_concentration":    "supply depends on few vendors; verify continuity plans",
	"collateral_coverage":       "collateral does not cover the requested line; reduce or secure",
	"operating_cycle":           "operating cycle is too long for unsecured credit",
}

// score evaluates one criterion: classify the value on its ladder, or fall
// back to the documented no-data tier when the value is absent.
func (c *Calculator) score(cat *categoryBuilder, name string, value *float64) {
	alloc := cat.points.Criteria[name]

	var tier policy.Tier
	noData := value == nil
	if noData {
		tier = c.policy.NoDataTier(name)
	} else {
		ladder, err := c.policy.CriterionLadder(name)
		if err != nil {
			// a policy missing a ladder for an allocated criterion is
			// caught by Validate at load time; treat it as no data
			tier = c.policy.NoDataTier(name)
			noData = true
		} else {
			tier = ladder.Classify(*value)
		}
	}

	cat.add(CriterionScore{
		Name:      name,
		Value:     value,
		Tier:      tier,
		Points:    domain.Round2(alloc * c.policy.TierFraction(tier)),
		MaxPoints: alloc,
		NoData:    noData,
	})
}

// categoryBuilder accumulates criterion scores and caps the category total
// at its weight.
type categoryBuilder struct {
	name     string
	points   policy.CategoryPoints
	criteria []CriterionScore
}

func (b *categoryBuilder) add(cs CriterionScore) {
	b.criteria = append(b.criteria, cs)
}

func (b *categoryBuilder) build() CategoryScore {
	total := 0.0
	for _, cs := range b.criteria {
		total += cs.Points
	}
	if total > b.points.Weight {
		total = b.points.Weight
	}
	return CategoryScore{
		Name:     b.name,
		Weight:   b.points.Weight,
		Points:   domain.Round2(total),
		Criteria: b.criteria,
	}
}
