package guardrail

// Policy is the per-tenant guardrail configuration, supplied read-only by
// the tenant configuration store.
type Policy struct {
	AllowPriceQuotes   bool     `mapstructure:"allowPriceQuotes" json:"allow_price_quotes"`
	CompetitorNames    []string `mapstructure:"competitorNames" json:"competitor_names"`
	WaiveGrounding     bool     `mapstructure:"waiveGrounding" json:"waive_grounding"`
	GroundingThreshold float64  `mapstructure:"groundingThreshold" json:"grounding_threshold"`
}
