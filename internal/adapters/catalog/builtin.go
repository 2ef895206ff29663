package catalog

import "github.com/BenWhite02/marketing-kairos-sub004/internal/domain"

const builtinPopulation = 250000

var builtinSegments = []domain.Segment{
	{ID: "seg-new-visitors", Name: "New visitors", Description: "First session in the last 30 days", Size: 45000},
	{ID: "seg-returning", Name: "Returning customers", Description: "Two or more purchases", Size: 32000},
	{ID: "seg-high-value", Name: "High-value customers", Description: "Lifetime value above 1000", Size: 8500},
	{ID: "seg-cart-abandoners", Name: "Cart abandoners", Description: "Abandoned a cart in the last 7 days", Size: 12000},
	{ID: "seg-mobile", Name: "Mobile users", Description: "Most sessions on a mobile device", Size: 98000},
	{ID: "seg-newsletter", Name: "Newsletter subscribers", Size: 27000},
	{ID: "seg-churn-risk", Name: "Churn risk", Description: "No activity in the last 60 days", Size: 15500},
	{ID: "seg-employees", Name: "Employees", Description: "Internal accounts", Size: 400},
}

var builtinAtoms = []domain.AtomDefinition{
	{ID: "atom-age-range", Name: "Age range", Type: domain.AtomDemographic, Selectivity: 0.35, Operators: []string{"between", "greater_than", "less_than"}},
	{ID: "atom-country", Name: "Country", Type: domain.AtomDemographic, Selectivity: 0.6, Operators: []string{"equals", "in", "not_in"}},
	{ID: "atom-gender", Name: "Gender", Type: domain.AtomDemographic, Selectivity: 0.5, Operators: []string{"equals"}},
	{ID: "atom-page-views", Name: "Page views", Type: domain.AtomBehavioral, Selectivity: 0.4, Operators: []string{"greater_than", "less_than"}},
	{ID: "atom-session-count", Name: "Session count", Type: domain.AtomBehavioral, Selectivity: 0.3, Operators: []string{"greater_than", "less_than", "equals"}},
	{ID: "atom-email-engaged", Name: "Email engaged", Type: domain.AtomBehavioral, Selectivity: 0.22, Operators: []string{"equals"}},
	{ID: "atom-purchase-count", Name: "Purchase count", Type: domain.AtomTransactional, Selectivity: 0.18, Operators: []string{"greater_than", "equals"}},
	{ID: "atom-avg-order-value", Name: "Average order value", Type: domain.AtomTransactional, Selectivity: 0.25, Operators: []string{"greater_than", "less_than", "between"}},
	{ID: "atom-device", Name: "Device type", Type: domain.AtomContextual, Selectivity: 0.55, Operators: []string{"equals", "in"}},
	{ID: "atom-time-of-day", Name: "Time of day", Type: domain.AtomContextual, Selectivity: 0.33, Operators: []string{"between"}},
}

// Default returns a Directory over the built-in catalog.
func Default() *Directory {
	d, err := New(File{Population: builtinPopulation, Segments: builtinSegments, Atoms: builtinAtoms})
	if err != nil {
		panic("catalog: invalid built-in catalog: " + err.Error())
	}
	return d
}
