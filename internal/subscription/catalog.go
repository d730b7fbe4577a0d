package subscription

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/briefly-bot/briefly/internal/store"
)

// Plan describes one paid tier: its monthly allowance and the provider
// identifiers used to sell it.
type Plan struct {
	Tier            store.Tier `yaml:"tier"`
	MonthlyLimit    int        `yaml:"monthly_limit"`
	StripeProductID string     `yaml:"stripe_product_id"`
	StripePriceID   string     `yaml:"stripe_price_id"`
	PriceCents      int64      `yaml:"price_cents"`
	Currency        string     `yaml:"currency"`
	Interval        string     `yaml:"interval"`
}

// Catalog is the configuration source of truth for tier limits and product
// mappings. The per-user premium.summaries_limit is only a cached snapshot of
// these numbers, refreshed on every tier transition.
type Catalog struct {
	freeLimit int
	plans     map[store.Tier]Plan
	byProduct map[string]store.Tier
}

type catalogFile struct {
	FreeLimit int    `yaml:"free_limit"`
	Plans     []Plan `yaml:"plans"`
}

// NewCatalog builds a catalog from a free-tier allowance and paid plans.
func NewCatalog(freeLimit int, plans ...Plan) (*Catalog, error) {
	c := &Catalog{
		freeLimit: freeLimit,
		plans:     make(map[store.Tier]Plan, len(plans)),
		byProduct: make(map[string]store.Tier, len(plans)),
	}

	for _, plan := range plans {
		if !plan.Tier.Valid() || plan.Tier == store.TierFree {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCatalog, plan.Tier)
		}
		if plan.MonthlyLimit < store.UnlimitedSummaries || plan.MonthlyLimit == 0 {
			return nil, fmt.Errorf("%w: tier %q limit %d", ErrInvalidCatalog, plan.Tier, plan.MonthlyLimit)
		}
		if _, dup := c.plans[plan.Tier]; dup {
			return nil, fmt.Errorf("%w: duplicate tier %q", ErrInvalidCatalog, plan.Tier)
		}
		c.plans[plan.Tier] = plan
		if plan.StripeProductID != "" {
			c.byProduct[plan.StripeProductID] = plan.Tier
		}
	}

	return c, nil
}

// LoadCatalog reads the tier catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	if file.FreeLimit <= 0 {
		return nil, fmt.Errorf("%w: free_limit must be positive", ErrInvalidCatalog)
	}

	return NewCatalog(file.FreeLimit, file.Plans...)
}

// FreeLimit returns the free tier's monthly allowance.
func (c *Catalog) FreeLimit() int {
	return c.freeLimit
}

// Plan returns the paid plan for a tier.
func (c *Catalog) Plan(tier store.Tier) (Plan, error) {
	plan, ok := c.plans[tier]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	return plan, nil
}

// Limit returns the monthly allowance for any tier, free included.
func (c *Catalog) Limit(tier store.Tier) (int, error) {
	if tier == store.TierFree {
		return c.freeLimit, nil
	}
	plan, err := c.Plan(tier)
	if err != nil {
		return 0, err
	}
	return plan.MonthlyLimit, nil
}

// TierByProduct resolves a provider product id to a tier. Unresolvable ids
// reject the event upstream with no state change.
func (c *Catalog) TierByProduct(productID string) (store.Tier, error) {
	tier, ok := c.byProduct[productID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProduct, productID)
	}
	return tier, nil
}
