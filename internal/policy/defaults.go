package policy

// Default returns the built-in policy. It is data, not behavior: deployments
// normally override it with an external JSON document, and the engines never
// reference any of these numbers directly.
func Default() *Config {
	return &Config{
		Thresholds: Thresholds{
			ZScore: ZScoreThresholds{
				Safe:     2.99,
				Distress: 1.81,
			},
			Debt: DebtThresholds{
				Leverage:         Ladder{Edges: [4]float64{0.5, 1.0, 2.0, 3.0}},
				DebtToEBITDA:     Ladder{Edges: [4]float64{1.5, 2.5, 3.5, 4.5}},
				ShortTermShare:   Ladder{Edges: [4]float64{0.30, 0.50, 0.70, 0.85}},
				AssetLeverage:    Ladder{Edges: [4]float64{0.30, 0.50, 0.65, 0.80}},
				InterestCoverage: Ladder{Edges: [4]float64{5, 3, 2, 1}, HigherIsBetter: true},
				Delinquency:      Ladder{Edges: [4]float64{0.025, 0.035, 0.045, 0.050}},
			},
			Criteria: map[string]Ladder{
				// registration / compliance
				"time_in_business":          {Edges: [4]float64{10, 6, 3, 1}, HigherIsBetter: true},
				"compliance_restrictions":   {Edges: [4]float64{0, 1, 2, 4}},
				"tax_clearance":             {Edges: [4]float64{1, 0.75, 0.5, 0.25}, HigherIsBetter: true},
				"registration_completeness": {Edges: [4]float64{1.0, 0.9, 0.75, 0.5}, HigherIsBetter: true},
				"relationship_length":       {Edges: [4]float64{5, 3, 1, 0.5}, HigherIsBetter: true},

				// financial
				"net_margin":        {Edges: [4]float64{0.12, 0.08, 0.04, 0.01}, HigherIsBetter: true},
				"roe":               {Edges: [4]float64{0.20, 0.12, 0.06, 0.02}, HigherIsBetter: true},
				"revenue_growth":    {Edges: [4]float64{0.15, 0.08, 0.02, -0.05}, HigherIsBetter: true},
				"current_liquidity": {Edges: [4]float64{1.8, 1.4, 1.1, 0.9}, HigherIsBetter: true},
				"z_score_zone":      {Edges: [4]float64{2.99, 2.40, 1.81, 1.20}, HigherIsBetter: true},

				// payment capacity
				"interest_coverage":       {Edges: [4]float64{5, 3, 2, 1}, HigherIsBetter: true},
				"ebitda_margin":           {Edges: [4]float64{0.18, 0.12, 0.07, 0.03}, HigherIsBetter: true},
				"cash_cycle":              {Edges: [4]float64{30, 60, 90, 120}},
				"receivables_delinquency": {Edges: [4]float64{0.025, 0.035, 0.045, 0.050}},

				// leverage
				"debt_to_equity":       {Edges: [4]float64{0.5, 1.0, 2.0, 3.0}},
				"short_term_share":     {Edges: [4]float64{0.30, 0.50, 0.70, 0.85}},
				"asset_leverage":       {Edges: [4]float64{0.30, 0.50, 0.65, 0.80}},
				"payables_delinquency": {Edges: [4]float64{0.025, 0.035, 0.045, 0.050}},

				// structure / concentration
				"customer_concentration": {Edges: [4]float64{0.10, 0.20, 0.35, 0.50}},
				"supplier_concentration": {Edges: [4]float64{0.15, 0.25, 0.40, 0.60}},
				"collateral_coverage":    {Edges: [4]float64{2.0, 1.5, 1.0, 0.5}, HigherIsBetter: true},
				"operating_cycle":        {Edges: [4]float64{60, 90, 120, 150}},
			},
			BalanceTolerance: 1000,
		},
		Points: Points{
			Registration: CategoryPoints{
				Weight: 20,
				Criteria: map[string]float64{
					"time_in_business":          5,
					"compliance_restrictions":   5,
					"tax_clearance":             4,
					"registration_completeness": 3,
					"relationship_length":       3,
				},
			},
			Financial: CategoryPoints{
				Weight: 22,
				Criteria: map[string]float64{
					"net_margin":        5,
					"roe":               4,
					"revenue_growth":    4,
					"current_liquidity": 5,
					"z_score_zone":      4,
				},
			},
			PaymentCapacity: CategoryPoints{
				Weight: 23,
				Criteria: map[string]float64{
					"interest_coverage":       6,
					"ebitda_margin":           5,
					"cash_cycle":              6,
					"receivables_delinquency": 6,
				},
			},
			Leverage: CategoryPoints{
				Weight: 20,
				Criteria: map[string]float64{
					"debt_to_equity":       6,
					"short_term_share":     5,
					"asset_leverage":       5,
					"payables_delinquency": 4,
				},
			},
			StructureConcentration: CategoryPoints{
				Weight: 15,
				Criteria: map[string]float64{
					"customer_concentration": 4,
					"supplier_concentration": 3,
					"collateral_coverage":    4,
					"operating_cycle":        4,
				},
			},
			Tiers: TierFractions{
				TierExcellent: 1.0,
				TierGood:      0.8,
				TierAdequate:  0.6,
				TierLow:       0.4,
				TierCritical:  0.2,
			},
		},
		Classification: []RatingBand{
			{Rating: "AAA", Min: 90, Max: 100, RiskLabel: "minimal risk", Color: "green", Narrative: "first-tier credit; best conditions apply"},
			{Rating: "AA", Min: 80, Max: 90, RiskLabel: "very low risk", Color: "green", Narrative: "strong profile with comfortable repayment capacity"},
			{Rating: "A", Min: 70, Max: 80, RiskLabel: "low risk", Color: "light-green", Narrative: "solid profile; standard conditions"},
			{Rating: "BBB", Min: 60, Max: 70, RiskLabel: "moderate risk", Color: "yellow", Narrative: "acceptable profile; monitor the weaker criteria"},
			{Rating: "BB", Min: 50, Max: 60, RiskLabel: "elevated risk", Color: "yellow", Narrative: "fragile profile; require mitigants or guarantees"},
			{Rating: "B", Min: 40, Max: 50, RiskLabel: "high risk", Color: "orange", Narrative: "weak profile; restrict exposure and demand collateral"},
			{Rating: "C", Min: 30, Max: 40, RiskLabel: "very high risk", Color: "red", Narrative: "distressed profile; new credit not recommended"},
			{Rating: "D", Min: 0, Max: 30, RiskLabel: "imminent default risk", Color: "red", Narrative: "decline and review existing exposure"},
		},
		Delta: DeltaTiers{
			Critical: 15,
			High:     10,
			Moderate: 5,
		},
		Defaults: Defaults{
			NoDataTier: map[string]Tier{
				"revenue_growth":      TierAdequate,
				"relationship_length": TierAdequate,
				"z_score_zone":        TierAdequate,
				"collateral_coverage": TierAdequate,
				"cash_cycle":          TierAdequate,
				"operating_cycle":     TierAdequate,
			},
		},
	}
}
