// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// ClientProfile is the advisory firm's view of one client. Scalar attributes
// are diffed field by field during merge review; the collections below follow
// per-collection sync rules instead.
type ClientProfile struct {
	UID    string `json:"uid"`
	TeamID string `json:"team_id"`

	// Identity and contact
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	BirthDate     string `json:"birth_date,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	MaritalStatus string `json:"marital_status,omitempty"`
	Profession    string `json:"profession,omitempty"`

	// Financial situation
	AnnualIncome   float64  `json:"annual_income,omitempty"`
	Smoker         bool     `json:"smoker,omitempty"`
	RiskProfile    string   `json:"risk_profile,omitempty"`
	InvestmentGoal string   `json:"investment_goal,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	Tags           []string `json:"tags,omitempty"`

	// Relational collections
	Liabilities      []Liability       `json:"liabilities,omitempty"`
	FinancialAssets  []FinancialAsset  `json:"financial_assets,omitempty"`
	RealEstateAssets []RealEstateAsset `json:"real_estate_assets,omitempty"`
	OtherSavings     []OtherSaving     `json:"other_savings,omitempty"`
	Incomes          []Income          `json:"incomes,omitempty"`
	Spouse           *Spouse           `json:"spouse,omitempty"`
	Children         []Child           `json:"children,omitempty"`

	// 1:1 sub-profiles accumulated across conversations
	PensionProfile    *PensionProfile    `json:"pension_profile,omitempty"`
	RetirementProfile *RetirementProfile `json:"retirement_profile,omitempty"`
	SavingsProfile    *SavingsProfile    `json:"savings_profile,omitempty"`
	HealthWishes      *HealthWishes      `json:"health_wishes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Liability is one loan or debt. Nature plus lender identifies a loan when
// the client mentions it across several sentences.
type Liability struct {
	UID                string  `json:"uid"`
	Nature             string  `json:"nature"` // e.g. "pret immobilier", "credit conso"
	Lender             string  `json:"lender,omitempty"`
	MonthlyPayment     float64 `json:"monthly_payment,omitempty"`
	OutstandingBalance float64 `json:"outstanding_balance,omitempty"`
	Rate               float64 `json:"rate,omitempty"`
	EndDate            string  `json:"end_date,omitempty"`
}

// FinancialAsset is one bank or brokerage holding.
type FinancialAsset struct {
	UID         string  `json:"uid"`
	Designation string  `json:"designation"` // e.g. "assurance vie", "PEA"
	Institution string  `json:"institution,omitempty"`
	Value       float64 `json:"value,omitempty"`
}

// RealEstateAsset is one property.
type RealEstateAsset struct {
	UID         string  `json:"uid"`
	Designation string  `json:"designation"`
	Usage       string  `json:"usage,omitempty"` // "residence principale", "locatif", ...
	Value       float64 `json:"value,omitempty"`
}

// OtherSaving is a savings vehicle outside financial and real-estate assets.
type OtherSaving struct {
	UID         string  `json:"uid"`
	Designation string  `json:"designation"`
	Value       float64 `json:"value,omitempty"`
}

// Income is one recurring income stream.
type Income struct {
	UID          string  `json:"uid"`
	Nature       string  `json:"nature"`
	AnnualAmount float64 `json:"annual_amount,omitempty"`
}

// Spouse holds the at-most-one spouse of a client.
type Spouse struct {
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"`
	Profession string `json:"profession,omitempty"`
}

// Child is one dependent child.
type Child struct {
	UID       string `json:"uid"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
}

// PensionProfile is the 1:1 pension sub-profile. Blank incoming fields never
// clobber existing detail.
type PensionProfile struct {
	CurrentPlan         string  `json:"current_plan,omitempty"`
	MonthlyContribution float64 `json:"monthly_contribution,omitempty"`
	TargetAge           int     `json:"target_age,omitempty"`
	Notes               string  `json:"notes,omitempty"`
}

// RetirementProfile is the 1:1 retirement sub-profile.
type RetirementProfile struct {
	ExpectedPension  float64 `json:"expected_pension,omitempty"`
	QuartersAcquired int     `json:"quarters_acquired,omitempty"`
	DesiredAge       int     `json:"desired_age,omitempty"`
	Notes            string  `json:"notes,omitempty"`
}

// SavingsProfile is the 1:1 savings sub-profile.
type SavingsProfile struct {
	MonthlyCapacity float64 `json:"monthly_capacity,omitempty"`
	Horizon         string  `json:"horizon,omitempty"`
	Objective       string  `json:"objective,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

// HealthWishes is the 1:1 health coverage wishes record.
type HealthWishes struct {
	CurrentCoverage string `json:"current_coverage,omitempty"`
	DesiredCoverage string `json:"desired_coverage,omitempty"`
	Priorities      string `json:"priorities,omitempty"`
	Notes           string `json:"notes,omitempty"`
}
