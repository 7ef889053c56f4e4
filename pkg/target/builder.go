package target

// Builder provides a fluent API for constructing Dialects, mirroring the
// teacher's dialect.Builder in
// _examples/leapstack-labs-leapsql/pkg/dialect/dialect.go.
type Builder struct {
	dialect *Dialect
}

// New creates a new dialect builder with the given name, ANSI-quoting
// defaults, and LIMIT-style row limiting.
func New(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name: name,
			Identifiers: IdentifierConfig{
				Quote:    `"`,
				QuoteEnd: `"`,
				Escape:   `""`,
			},
			Top:                TopStyleLimit,
			SupportsCTEs:       true,
			reservedWords:      make(map[string]struct{}),
		},
	}
}

// Extends sets parent as the fallback dialect for reserved-word lookups.
func (b *Builder) Extends(parent *Dialect) *Builder {
	b.dialect.parent = parent
	return b
}

// Identifiers configures identifier quoting.
func (b *Builder) Identifiers(quote, quoteEnd, escape string) *Builder {
	b.dialect.Identifiers = IdentifierConfig{Quote: quote, QuoteEnd: quoteEnd, Escape: escape}
	return b
}

// TopStyle sets the row-limiting style.
func (b *Builder) TopStyle(style TopStyle) *Builder {
	b.dialect.Top = style
	return b
}

// DistinctOn marks whether the dialect has native DISTINCT ON support.
func (b *Builder) DistinctOn(supported bool) *Builder {
	b.dialect.SupportsDistinctOn = supported
	return b
}

// SetOps configures EXCEPT/INTERSECT ALL support and whether the dialect
// accepts an explicit ALL/DISTINCT qualifier on set operations at all.
func (b *Builder) SetOps(exceptAll, intersectAll, allowsQualifier bool) *Builder {
	b.dialect.SupportsExceptAll = exceptAll
	b.dialect.SupportsIntersectAll = intersectAll
	b.dialect.SetOpsAllowAllQualifier = allowsQualifier
	return b
}

// CTEs configures CTE and recursive-CTE support.
func (b *Builder) CTEs(supported, recursive bool) *Builder {
	b.dialect.SupportsCTEs = supported
	b.dialect.SupportsRecursiveCTEs = recursive
	return b
}

// StarsInGroupBy marks whether `GROUP BY *`-style expansion is legal.
func (b *Builder) StarsInGroupBy(supported bool) *Builder {
	b.dialect.StarsInGroupBy = supported
	return b
}

// ReservedWords adds words that must be quoted when used as identifiers.
func (b *Builder) ReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.dialect.reservedWords[w] = struct{}{}
	}
	return b
}

// Build finalizes and returns the Dialect.
func (b *Builder) Build() *Dialect { return b.dialect }
