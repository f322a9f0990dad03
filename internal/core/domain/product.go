package domain

// ProductTier classifies catalog entries. It is a closed set; every
// decision point that branches on tier must handle all values.
type ProductTier string

const (
	// TierBasic is the entry-level training product.
	TierBasic ProductTier = "basic"

	// TierPremium is the lifetime-access training product.
	TierPremium ProductTier = "premium"

	// TierAccess is the monthly platform subscription.
	TierAccess ProductTier = "access"

	// TierBundle is the all-inclusive pack.
	TierBundle ProductTier = "bundle"
)

// Valid reports whether the tier is a known catalog tier.
func (t ProductTier) Valid() bool {
	switch t {
	case TierBasic, TierPremium, TierAccess, TierBundle:
		return true
	}
	return false
}

// Premium reports whether buying this tier upgrades the customer to
// premium status.
func (t ProductTier) Premium() bool {
	switch t {
	case TierPremium, TierBundle:
		return true
	case TierBasic, TierAccess:
		return false
	}
	return false
}

// Product is a static catalog entry. The catalog is fixed at compile
// time; nothing mutates products at runtime.
type Product struct {
	// ID is the catalog identifier.
	ID string

	// Name is the customer-facing product name.
	Name string

	// Description is a one-line summary.
	Description string

	// Price is the list price. Order amounts are copied from it at
	// order creation and never change afterwards.
	Price float64

	// Tier classifies the product for premium upgrades.
	Tier ProductTier

	// Features lists what the product includes.
	Features []string
}

// Catalog returns the static product catalog keyed by product ID.
func Catalog() map[string]Product {
	return map[string]Product{
		"formation_basic": {
			ID:          "formation_basic",
			Name:        "Rapid Diagnostic Training",
			Description: "Become an automotive diagnostic expert",
			Price:       97.0,
			Tier:        TierBasic,
			Features: []string{
				"Database of 5000+ documented faults",
				"Probability-ranked diagnoses",
				"Lifetime downloadable document",
				"Quarterly updates",
			},
		},
		"formation_premium": {
			ID:          "formation_premium",
			Name:        "PREMIUM Training - Lifetime Access",
			Description: "Become the reference in automotive diagnostics",
			Price:       297.0,
			Tier:        TierPremium,
			Features: []string{
				"Everything in Basic",
				"Lifetime platform access",
				"Weekly automatic updates",
				"Priority support",
				"Private community",
				"Professional certificate",
			},
		},
		"diagnostic_access": {
			ID:          "diagnostic_access",
			Name:        "Diagnostic Platform Access (1 month)",
			Description: "Remote diagnostics for your customers",
			Price:       47.0,
			Tier:        TierAccess,
			Features: []string{
				"1 month platform access",
				"Unlimited diagnostics",
				"Automatic reports",
				"Branded customer interface",
			},
		},
		"full_bundle": {
			ID:          "full_bundle",
			Name:        "COMPLETE PACK - All Inclusive",
			Description: "Premium training + diagnostics + bonuses",
			Price:       397.0,
			Tier:        TierBundle,
			Features: []string{
				"Complete PREMIUM training",
				"Diagnostic platform access (1 year)",
				"VIP priority support",
				"All bonuses",
				"1h private coaching",
			},
		},
	}
}
