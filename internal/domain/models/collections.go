// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package models

// CollectionKind identifies one relational collection of a client profile.
// The set is closed: merge routing switches exhaustively over these kinds, so
// adding a collection is a compile-time-checked change.
type CollectionKind string

const (
	CollectionLiabilities       CollectionKind = "liabilities"
	CollectionFinancialAssets   CollectionKind = "financial_assets"
	CollectionRealEstateAssets  CollectionKind = "real_estate_assets"
	CollectionOtherSavings      CollectionKind = "other_savings"
	CollectionIncomes           CollectionKind = "incomes"
	CollectionSpouse            CollectionKind = "spouse"
	CollectionChildren          CollectionKind = "children"
	CollectionPensionProfile    CollectionKind = "bae_pension"
	CollectionRetirementProfile CollectionKind = "bae_retirement"
	CollectionSavingsProfile    CollectionKind = "bae_savings"
	CollectionHealthWishes      CollectionKind = "health_wishes"
)

// AllCollectionKinds lists every known collection kind.
var AllCollectionKinds = []CollectionKind{
	CollectionLiabilities,
	CollectionFinancialAssets,
	CollectionRealEstateAssets,
	CollectionOtherSavings,
	CollectionIncomes,
	CollectionSpouse,
	CollectionChildren,
	CollectionPensionProfile,
	CollectionRetirementProfile,
	CollectionSavingsProfile,
	CollectionHealthWishes,
}

// ParseCollectionKind maps a wire name onto a known collection kind.
func ParseCollectionKind(name string) (CollectionKind, bool) {
	for _, kind := range AllCollectionKinds {
		if string(kind) == name {
			return kind, true
		}
	}
	return "", false
}

// IsCollectionField reports whether the given extracted field name refers to
// a relational collection rather than a scalar attribute.
func IsCollectionField(name string) bool {
	_, ok := ParseCollectionKind(name)
	return ok
}
