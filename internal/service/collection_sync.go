// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/pkg/normalize"
)

// syncCollection applies one accepted collection batch to the profile copy.
// Each collection kind carries its own accumulate-vs-replace policy because
// conversations restate some collections fully and mention others partially.
// The switch is exhaustive over the closed kind set.
func syncCollection(profile *models.ClientProfile, kind models.CollectionKind, items []map[string]any) error {
	switch kind {
	case models.CollectionLiabilities:
		return syncLiabilities(profile, items)
	case models.CollectionFinancialAssets:
		return syncFinancialAssets(profile, items)
	case models.CollectionRealEstateAssets:
		return syncRealEstateAssets(profile, items)
	case models.CollectionOtherSavings:
		return syncOtherSavings(profile, items)
	case models.CollectionIncomes:
		return syncIncomes(profile, items)
	case models.CollectionSpouse:
		return syncSpouse(profile, items)
	case models.CollectionChildren:
		return syncChildren(profile, items)
	case models.CollectionPensionProfile:
		return syncPensionProfile(profile, items)
	case models.CollectionRetirementProfile:
		return syncRetirementProfile(profile, items)
	case models.CollectionSavingsProfile:
		return syncSavingsProfile(profile, items)
	case models.CollectionHealthWishes:
		return syncHealthWishes(profile, items)
	default:
		return domain.NewValidationError(fmt.Sprintf("unknown collection kind %q", kind))
	}
}

// decodeItems decodes loosely typed extraction items into the collection's
// concrete item type. Weak typing tolerates numbers arriving as strings.
func decodeItems[T any](items []map[string]any) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, item := range items {
		var decoded T
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &decoded,
			TagName:          "json",
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, domain.NewInternalError("error building collection decoder", err)
		}
		if err := decoder.Decode(item); err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("invalid collection item %d", i), err)
		}
		out = append(out, decoded)
	}
	return out, nil
}

// liabilityKey identifies one loan across partial mentions: normalized
// nature, plus lender when stated.
func liabilityKey(nature, lender string) string {
	key := normalize.Fold(nature)
	if lender != "" {
		key += "|" + normalize.Fold(lender)
	}
	return key
}

// syncLiabilities replaces the liability list: the extraction is treated as
// a full restatement, so loans not re-mentioned are dropped. The incoming
// batch is first deduplicated against itself, merging partial mentions of
// the same loan field by field.
func syncLiabilities(profile *models.ClientProfile, items []map[string]any) error {
	incoming, err := decodeItems[models.Liability](items)
	if err != nil {
		return err
	}

	// Pre-dedup: "j'ai un pret immobilier" and "le pret immobilier au Credit
	// Agricole, il reste 80000" arrive as two items for one loan.
	merged := make([]models.Liability, 0, len(incoming))
	index := make(map[string]int)
	for _, item := range incoming {
		key := liabilityKey(item.Nature, item.Lender)
		// A lender-less mention folds into an earlier mention of the same
		// nature when one exists.
		pos, seen := index[key]
		if !seen && item.Lender == "" {
			for existingKey, existingPos := range index {
				if strings.HasPrefix(existingKey, normalize.Fold(item.Nature)+"|") {
					pos, seen = existingPos, true
					break
				}
			}
		}
		if !seen {
			index[key] = len(merged)
			merged = append(merged, item)
			continue
		}
		mergeLiability(&merged[pos], item)
	}

	result := make([]models.Liability, 0, len(merged))
	for _, item := range merged {
		if existing, ok := findLiability(profile.Liabilities, item); ok {
			mergeLiability(&existing, item)
			result = append(result, existing)
			continue
		}
		item.UID = uuid.New().String()
		result = append(result, item)
	}
	profile.Liabilities = result
	return nil
}

func findLiability(existing []models.Liability, item models.Liability) (models.Liability, bool) {
	for _, e := range existing {
		if !normalize.EqualFold(e.Nature, item.Nature) {
			continue
		}
		if item.Lender == "" || e.Lender == "" || normalize.EqualFold(e.Lender, item.Lender) {
			return e, true
		}
	}
	return models.Liability{}, false
}

func mergeLiability(dst *models.Liability, src models.Liability) {
	if src.Lender != "" {
		dst.Lender = src.Lender
	}
	if src.MonthlyPayment != 0 {
		dst.MonthlyPayment = src.MonthlyPayment
	}
	if src.OutstandingBalance != 0 {
		dst.OutstandingBalance = src.OutstandingBalance
	}
	if src.Rate != 0 {
		dst.Rate = src.Rate
	}
	if src.EndDate != "" {
		dst.EndDate = src.EndDate
	}
}

// syncFinancialAssets replaces the holdings list: a full restatement is
// assumed, so holdings not re-mentioned are dropped. Matching is by
// designation, or by designation plus near-equal value when institutions
// differ in wording.
func syncFinancialAssets(profile *models.ClientProfile, items []map[string]any) error {
	incoming, err := decodeItems[models.FinancialAsset](items)
	if err != nil {
		return err
	}

	result := make([]models.FinancialAsset, 0, len(incoming))
	for _, item := range incoming {
		matched := false
		for _, e := range profile.FinancialAssets {
			if normalize.EqualFold(e.Designation, item.Designation) ||
				(item.Value != 0 && normalize.NearlyEqual(e.Value, item.Value) &&
					normalize.EqualFold(e.Institution, item.Institution)) {
				if item.Institution != "" {
					e.Institution = item.Institution
				}
				if item.Value != 0 {
					e.Value = item.Value
				}
				result = append(result, e)
				matched = true
				break
			}
		}
		if !matched {
			item.UID = uuid.New().String()
			result = append(result, item)
		}
	}
	profile.FinancialAssets = result
	return nil
}

// syncRealEstateAssets accumulates: properties not re-mentioned are kept.
func syncRealEstateAssets(profile *models.ClientProfile, items []map[string]any) error {
	incoming, err := decodeItems[models.RealEstateAsset](items)
	if err != nil {
		return err
	}

	for _, item := range incoming {
		matched := false
		for i := range profile.RealEstateAssets {
			e := &profile.RealEstateAssets[i]
			if normalize.EqualFold(e.Designation, item.Designation) {
				if item.Usage != "" {
					e.Usage = item.Usage
				}
				if item.Value != 0 {
					e.Value = item.Value
				}
				matched = true
				break
			}
		}
		if !matched {
			item.UID = uuid.New().String()
			profile.RealEstateAssets = append(profile.RealEstateAssets, item)
		}
	}
	return nil
}

// syncOtherSavings accumulates, matching by designation.
func syncOtherSavings(profile *models.ClientProfile, items []map[string]any) error {
	incoming, err := decodeItems[models.OtherSaving](items)
	if err != nil {
		return err
	}

	for _, item := range incoming {
		matched := false
		for i := range profile.OtherSavings {
			e := &profile.OtherSavings[i]
			if normalize.EqualFold(e.Designation, item.Designation) {
				if item.Value != 0 {
					e.Value = item.Value
				}
				matched = true
				break
			}
		}
		if !matched {
			item.UID = uuid.New().String()
			profile.OtherSavings = append(profile.OtherSavings, item)
		}
	}
	return nil
}

// syncIncomes accumulates, matching by nature.
func syncIncomes(profile *models.ClientProfile, items []map[string]any) error {
	incoming, err := decodeItems[models.Income](items)
	if err != nil {
		return err
	}

	for _, item := range incoming {
		matched := false
		for i := range profile.Incomes {
			e := &profile.Incomes[i]
			if normalize.EqualFold(e.Nature, item.Nature) {
				if item.AnnualAmount != 0 {
					e.AnnualAmount = item.AnnualAmount
				}
				matched = true
				break
			}
		}
		if !matched {
			item.UID = uuid.New().String()
			profile.Incomes = append(profile.Incomes, item)
		}
	}
	return nil
}

// syncSpouse upserts the at-most-one spouse. Only the first incoming item is
// considered.
func syncSpouse(profile *models.ClientProfile, items []map[string]any) error {
	if len(items) == 0 {
		return nil
	}
	incoming, err := decodeItems[models.Spouse](items[:1])
	if err != nil {
		return err
	}
	item := incoming[0]

	if profile.Spouse == nil {
		profile.Spouse = &item
		return nil
	}
	if item.FirstName != "" {
		profile.Spouse.FirstName = item.FirstName
	}
	if item.LastName != "" {
		profile.Spouse.LastName = item.LastName
	}
	if item.BirthDate != "" {
		profile.Spouse.BirthDate = item.BirthDate
	}
	if item.Profession != "" {
		profile.Spouse.Profession = item.Profession
	}
	return nil
}

// syncChildren matches incoming children against existing ones by full name,
// then by unique first name, then by position in the existing ordered list.
// Children are never deleted by sync; removal is an explicit user action.
func syncChildren(profile *models.ClientProfile, items []map[string]any) error {
	incoming, err := decodeItems[models.Child](items)
	if err != nil {
		return err
	}

	for pos, item := range incoming {
		target := matchChild(profile.Children, item, pos)
		if target == nil {
			item.UID = uuid.New().String()
			profile.Children = append(profile.Children, item)
			continue
		}
		if item.LastName != "" {
			target.LastName = item.LastName
		}
		if item.BirthDate != "" {
			target.BirthDate = item.BirthDate
		}
		if item.FirstName != "" {
			target.FirstName = item.FirstName
		}
	}
	return nil
}

func matchChild(children []models.Child, item models.Child, position int) *models.Child {
	// Full name match.
	if item.FirstName != "" && item.LastName != "" {
		for i := range children {
			if normalize.EqualFold(children[i].FirstName, item.FirstName) &&
				normalize.EqualFold(children[i].LastName, item.LastName) {
				return &children[i]
			}
		}
	}
	// Unique first name match.
	if item.FirstName != "" {
		found := -1
		for i := range children {
			if normalize.EqualFold(children[i].FirstName, item.FirstName) {
				if found >= 0 {
					found = -1
					break
				}
				found = i
			}
		}
		if found >= 0 {
			return &children[found]
		}
	}
	// Positional match: "le premier a 12 ans" arrives without a name.
	if item.FirstName == "" && position < len(children) {
		return &children[position]
	}
	return nil
}

// The 1:1 sub-profiles accumulate detail across conversations: blank
// incoming fields never clobber existing values.

func syncPensionProfile(profile *models.ClientProfile, items []map[string]any) error {
	if len(items) == 0 {
		return nil
	}
	incoming, err := decodeItems[models.PensionProfile](items[:1])
	if err != nil {
		return err
	}
	item := incoming[0]
	if profile.PensionProfile == nil {
		profile.PensionProfile = &item
		return nil
	}
	dst := profile.PensionProfile
	if item.CurrentPlan != "" {
		dst.CurrentPlan = item.CurrentPlan
	}
	if item.MonthlyContribution != 0 {
		dst.MonthlyContribution = item.MonthlyContribution
	}
	if item.TargetAge != 0 {
		dst.TargetAge = item.TargetAge
	}
	if item.Notes != "" {
		dst.Notes = item.Notes
	}
	return nil
}

func syncRetirementProfile(profile *models.ClientProfile, items []map[string]any) error {
	if len(items) == 0 {
		return nil
	}
	incoming, err := decodeItems[models.RetirementProfile](items[:1])
	if err != nil {
		return err
	}
	item := incoming[0]
	if profile.RetirementProfile == nil {
		profile.RetirementProfile = &item
		return nil
	}
	dst := profile.RetirementProfile
	if item.ExpectedPension != 0 {
		dst.ExpectedPension = item.ExpectedPension
	}
	if item.QuartersAcquired != 0 {
		dst.QuartersAcquired = item.QuartersAcquired
	}
	if item.DesiredAge != 0 {
		dst.DesiredAge = item.DesiredAge
	}
	if item.Notes != "" {
		dst.Notes = item.Notes
	}
	return nil
}

func syncSavingsProfile(profile *models.ClientProfile, items []map[string]any) error {
	if len(items) == 0 {
		return nil
	}
	incoming, err := decodeItems[models.SavingsProfile](items[:1])
	if err != nil {
		return err
	}
	item := incoming[0]
	if profile.SavingsProfile == nil {
		profile.SavingsProfile = &item
		return nil
	}
	dst := profile.SavingsProfile
	if item.MonthlyCapacity != 0 {
		dst.MonthlyCapacity = item.MonthlyCapacity
	}
	if item.Horizon != "" {
		dst.Horizon = item.Horizon
	}
	if item.Objective != "" {
		dst.Objective = item.Objective
	}
	if item.Notes != "" {
		dst.Notes = item.Notes
	}
	return nil
}

func syncHealthWishes(profile *models.ClientProfile, items []map[string]any) error {
	if len(items) == 0 {
		return nil
	}
	incoming, err := decodeItems[models.HealthWishes](items[:1])
	if err != nil {
		return err
	}
	item := incoming[0]
	if profile.HealthWishes == nil {
		profile.HealthWishes = &item
		return nil
	}
	dst := profile.HealthWishes
	if item.CurrentCoverage != "" {
		dst.CurrentCoverage = item.CurrentCoverage
	}
	if item.DesiredCoverage != "" {
		dst.DesiredCoverage = item.DesiredCoverage
	}
	if item.Priorities != "" {
		dst.Priorities = item.Priorities
	}
	if item.Notes != "" {
		dst.Notes = item.Notes
	}
	return nil
}

// currentCollectionSummary renders the live side of a relational diff.
func currentCollectionSummary(profile *models.ClientProfile, kind models.CollectionKind) any {
	switch kind {
	case models.CollectionLiabilities:
		return profile.Liabilities
	case models.CollectionFinancialAssets:
		return profile.FinancialAssets
	case models.CollectionRealEstateAssets:
		return profile.RealEstateAssets
	case models.CollectionOtherSavings:
		return profile.OtherSavings
	case models.CollectionIncomes:
		return profile.Incomes
	case models.CollectionSpouse:
		return profile.Spouse
	case models.CollectionChildren:
		return profile.Children
	case models.CollectionPensionProfile:
		return profile.PensionProfile
	case models.CollectionRetirementProfile:
		return profile.RetirementProfile
	case models.CollectionSavingsProfile:
		return profile.SavingsProfile
	case models.CollectionHealthWishes:
		return profile.HealthWishes
	default:
		return nil
	}
}

// proposedCollectionSummary renders a short human-readable line per proposed
// item for the review UI.
func proposedCollectionSummary(kind models.CollectionKind, items []map[string]any) string {
	if len(items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		var parts []string
		for _, key := range []string{"designation", "nature", "first_name", "lender", "institution"} {
			if v, ok := item[key].(string); ok && v != "" {
				parts = append(parts, v)
			}
		}
		for _, key := range []string{"value", "monthly_payment", "annual_amount", "outstanding_balance"} {
			if v, ok := item[key]; ok && !normalize.IsEmpty(v) {
				parts = append(parts, fmt.Sprint(v))
			}
		}
		if len(parts) == 0 {
			parts = append(parts, fmt.Sprint(item))
		}
		lines = append(lines, strings.Join(parts, " - "))
	}
	return fmt.Sprintf("%s: %s", kind, strings.Join(lines, "; "))
}
