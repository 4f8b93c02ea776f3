// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldType is the declared semantic type of a mergeable scalar field.
// Override values submitted during review are parsed against this type
// instead of being shape-inferred from whatever the field currently holds.
type FieldType int

const (
	FieldTypeString FieldType = iota
	FieldTypeNumber
	FieldTypeBool
	FieldTypeStringSlice
)

// ParseValue parses a raw override or extracted value into the Go value for
// this field type. Returns an error when the raw value cannot represent the
// declared type.
func (ft FieldType) ParseValue(raw any) (any, error) {
	switch ft {
	case FieldTypeString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		return fmt.Sprint(raw), nil
	case FieldTypeNumber:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
			if err != nil {
				return nil, fmt.Errorf("not a number: %q", v)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("not a number: %v", raw)
		}
	case FieldTypeBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case float64:
			return v != 0, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "1", "true", "yes", "oui":
				return true, nil
			case "0", "false", "no", "non", "":
				return false, nil
			}
			return nil, fmt.Errorf("not a boolean: %q", v)
		default:
			return nil, fmt.Errorf("not a boolean: %v", raw)
		}
	case FieldTypeStringSlice:
		switch v := raw.(type) {
		case []string:
			return v, nil
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				out = append(out, fmt.Sprint(item))
			}
			return out, nil
		case string:
			parts := strings.Split(v, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out, nil
		default:
			return nil, fmt.Errorf("not a string list: %v", raw)
		}
	}
	return nil, fmt.Errorf("unknown field type %d", ft)
}

// FieldSpec declares one mergeable scalar field of a client profile: its
// wire name, semantic type, criticality, and typed accessors.
type FieldSpec struct {
	Name     string
	Type     FieldType
	Critical bool // identity, contact and income fields always require review
	Get      func(*ClientProfile) any
	Set      func(*ClientProfile, any)
}

// scalarFieldSchema is the closed set of scalar fields the merge reconciler
// knows about. Extracted fields outside this set are ignored by the diff.
var scalarFieldSchema = []FieldSpec{
	{Name: "first_name", Type: FieldTypeString, Critical: true,
		Get: func(c *ClientProfile) any { return c.FirstName },
		Set: func(c *ClientProfile, v any) { c.FirstName = v.(string) }},
	{Name: "last_name", Type: FieldTypeString, Critical: true,
		Get: func(c *ClientProfile) any { return c.LastName },
		Set: func(c *ClientProfile, v any) { c.LastName = v.(string) }},
	{Name: "birth_date", Type: FieldTypeString, Critical: true,
		Get: func(c *ClientProfile) any { return c.BirthDate },
		Set: func(c *ClientProfile, v any) { c.BirthDate = v.(string) }},
	{Name: "email", Type: FieldTypeString, Critical: true,
		Get: func(c *ClientProfile) any { return c.Email },
		Set: func(c *ClientProfile, v any) { c.Email = v.(string) }},
	{Name: "phone", Type: FieldTypeString, Critical: true,
		Get: func(c *ClientProfile) any { return c.Phone },
		Set: func(c *ClientProfile, v any) { c.Phone = v.(string) }},
	{Name: "address", Type: FieldTypeString, Critical: true,
		Get: func(c *ClientProfile) any { return c.Address },
		Set: func(c *ClientProfile, v any) { c.Address = v.(string) }},
	{Name: "city", Type: FieldTypeString, Critical: true,
		Get: func(c *ClientProfile) any { return c.City },
		Set: func(c *ClientProfile, v any) { c.City = v.(string) }},
	{Name: "postal_code", Type: FieldTypeString, Critical: true,
		Get: func(c *ClientProfile) any { return c.PostalCode },
		Set: func(c *ClientProfile, v any) { c.PostalCode = v.(string) }},
	{Name: "marital_status", Type: FieldTypeString,
		Get: func(c *ClientProfile) any { return c.MaritalStatus },
		Set: func(c *ClientProfile, v any) { c.MaritalStatus = v.(string) }},
	{Name: "profession", Type: FieldTypeString,
		Get: func(c *ClientProfile) any { return c.Profession },
		Set: func(c *ClientProfile, v any) { c.Profession = v.(string) }},
	{Name: "annual_income", Type: FieldTypeNumber, Critical: true,
		Get: func(c *ClientProfile) any { return c.AnnualIncome },
		Set: func(c *ClientProfile, v any) { c.AnnualIncome = v.(float64) }},
	{Name: "smoker", Type: FieldTypeBool,
		Get: func(c *ClientProfile) any { return c.Smoker },
		Set: func(c *ClientProfile, v any) { c.Smoker = v.(bool) }},
	{Name: "risk_profile", Type: FieldTypeString,
		Get: func(c *ClientProfile) any { return c.RiskProfile },
		Set: func(c *ClientProfile, v any) { c.RiskProfile = v.(string) }},
	{Name: "investment_goal", Type: FieldTypeString,
		Get: func(c *ClientProfile) any { return c.InvestmentGoal },
		Set: func(c *ClientProfile, v any) { c.InvestmentGoal = v.(string) }},
	{Name: "notes", Type: FieldTypeString,
		Get: func(c *ClientProfile) any { return c.Notes },
		Set: func(c *ClientProfile, v any) { c.Notes = v.(string) }},
	{Name: "tags", Type: FieldTypeStringSlice,
		Get: func(c *ClientProfile) any { return c.Tags },
		Set: func(c *ClientProfile, v any) { c.Tags = v.([]string) }},
}

// ScalarFieldSchema returns the full scalar field schema in declaration order.
func ScalarFieldSchema() []FieldSpec {
	return scalarFieldSchema
}

// FieldSpecByName looks up a scalar field spec by its wire name.
func FieldSpecByName(name string) (FieldSpec, bool) {
	for _, spec := range scalarFieldSchema {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}
