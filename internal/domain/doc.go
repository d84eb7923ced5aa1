// Package domain models property records fused from third-party real-estate
// data providers and the valuation heuristics used to judge whether a tax
// assessment is worth appealing.
//
// # Address Identity
//
// An address is the only lookup key. Identities are compared after
// normalization: lowercase, trimmed, internal whitespace collapsed. The cache
// key joins the four parts with underscores and replaces remaining spaces:
//
//	{"123 Main St", "Austin", "TX", "78701"}  →  "123_main_st_austin_tx_78701"
//
// # Canonical Record
//
// Numeric fields are pointers. A nil pointer means the provider did not
// report the value; zero is never used as "unknown". Provider payloads that
// report 0 for a numeric field are treated as absent, since no provider uses
// 0 as a meaningful assessment, sale price or area.
//
// # Field Extraction
//
// Provider responses disagree on names and nesting. Each field is described
// by a [FieldSpec]: flat aliases in priority order, then historical
// containers. Containers keyed by year pick the numerically largest year;
// containers keyed by date pick the latest parseable date; listed containers
// take their first element. The first alias that yields a usable value wins.
//
// # Synthetic Records
//
// When no provider yields data, [SyntheticRecord] derives a record from the
// sum of UTF-16 code units of the normalized street and city. The formula is
// fixed so the same address produces the same record on every run:
//
//	base        = 200000 + (hash*1000) % 800000
//	assessed    = round(base * 1.15)
//	lastSale    = round(base * 0.85), dated YYYY-MM-15
//	squareFeet  = 1200 + hash % 3000
//
// # Valuation
//
// [Score] starts from the assessed value and applies, in order: a recent-sale
// anchor, an equal-weight blend with a price-per-square-foot baseline, a
// condition multiplier, a renovation premium and an age adjustment. Viability
// tiers use strict comparisons, so a value exactly on a threshold lands in
// the lower tier.
package domain
