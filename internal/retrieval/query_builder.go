package retrieval

import (
	"fmt"
	"strings"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
)

// Combinators accepted for joining the per-keyword groups of the field tier.
const (
	CombinatorOR  = "OR"
	CombinatorAND = "AND"
)

// DefaultBroadQuery matches every product currently for sale.
const DefaultBroadQuery = "available_for_sale:true"

// fieldNames are the catalog fields a keyword is matched against in the field tier.
var fieldNames = []string{"title", "tag", "product_type", "vendor"}

// QueryBuilder renders the catalog search expression for each escalation tier.
type QueryBuilder struct {
	combinator string
	broadQuery string
}

// NewQueryBuilder creates a builder. Unknown combinators fall back to OR.
func NewQueryBuilder(combinator, broadQuery string) *QueryBuilder {
	combinator = strings.ToUpper(strings.TrimSpace(combinator))
	if combinator != CombinatorAND {
		combinator = CombinatorOR
	}
	if strings.TrimSpace(broadQuery) == "" {
		broadQuery = DefaultBroadQuery
	}
	return &QueryBuilder{combinator: combinator, broadQuery: broadQuery}
}

// Plan returns the tiers to try in order. Without keywords only the broad tier is planned.
func (b *QueryBuilder) Plan(keywords catalog.KeywordSet) []catalog.QueryExpression {
	if len(keywords) == 0 {
		return []catalog.QueryExpression{b.Broad()}
	}
	return []catalog.QueryExpression{
		b.Keywords(keywords),
		b.Fields(keywords),
		b.Broad(),
	}
}

// Keywords builds tier 1: the keywords joined by single spaces.
func (b *QueryBuilder) Keywords(keywords catalog.KeywordSet) catalog.QueryExpression {
	return catalog.QueryExpression{
		Tier:  catalog.TierKeywords,
		Query: strings.Join(keywords, " "),
	}
}

// Fields builds tier 2: each keyword matched against title, tag, product type or vendor.
func (b *QueryBuilder) Fields(keywords catalog.KeywordSet) catalog.QueryExpression {
	groups := make([]string, 0, len(keywords))
	for _, k := range keywords {
		escaped := EscapeQueryValue(k)
		parts := make([]string, 0, len(fieldNames))
		for _, f := range fieldNames {
			parts = append(parts, fmt.Sprintf("%s:'%s'", f, escaped))
		}
		groups = append(groups, "("+strings.Join(parts, " OR ")+")")
	}

	return catalog.QueryExpression{
		Tier:  catalog.TierFields,
		Query: strings.Join(groups, " "+b.combinator+" "),
	}
}

// Broad builds tier 3.
func (b *QueryBuilder) Broad() catalog.QueryExpression {
	return catalog.QueryExpression{
		Tier:  catalog.TierBroad,
		Query: b.broadQuery,
	}
}

// EscapeQueryValue escapes backslashes and single quotes for use inside a quoted search term.
func EscapeQueryValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}
