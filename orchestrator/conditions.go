package orchestrator

import (
	"strconv"
	"strings"

	"leadflow/models"
)

// EvaluateConditions reports whether all conditions hold for the contact and
// enrollment metadata (AND semantics). An empty list always holds.
func EvaluateConditions(conds []models.Condition, contact *models.Contact, metadata map[string]string) bool {
	for _, c := range conds {
		if !evaluateCondition(c, contact, metadata) {
			return false
		}
	}
	return true
}

func evaluateCondition(c models.Condition, contact *models.Contact, metadata map[string]string) bool {
	val, ok := fieldValue(c.Field, contact, metadata)

	switch c.Operator {
	case models.OperatorExists:
		return ok && val != ""
	case models.OperatorEquals:
		return strings.EqualFold(val, c.Value.Text)
	case models.OperatorNotEquals:
		return !strings.EqualFold(val, c.Value.Text)
	case models.OperatorContains:
		return strings.Contains(strings.ToLower(val), strings.ToLower(c.Value.Text))
	case models.OperatorNotContains:
		return !strings.Contains(strings.ToLower(val), strings.ToLower(c.Value.Text))
	case models.OperatorGreaterThan, models.OperatorLessThan:
		if c.Value.Number == nil {
			return false
		}
		n, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return false
		}
		if c.Operator == models.OperatorGreaterThan {
			return n > *c.Value.Number
		}
		return n < *c.Value.Number
	case models.OperatorIn:
		for _, item := range c.Value.List {
			if strings.EqualFold(val, item) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// fieldValue resolves a condition field against enrollment metadata first,
// then the contact record
func fieldValue(field string, contact *models.Contact, metadata map[string]string) (string, bool) {
	if v, ok := metadata[field]; ok {
		return v, true
	}
	if contact == nil {
		return "", false
	}
	switch field {
	case "email":
		return contact.Email, true
	case "first_name":
		return contact.FirstName, true
	case "last_name":
		return contact.LastName, true
	case "company":
		return contact.Company, true
	case "position":
		return contact.Position, true
	case "phone":
		return contact.Phone, true
	case "timezone":
		return contact.Timezone, true
	case "source":
		return contact.Source, true
	case "tag":
		// joined so "contains" matches any tag
		if len(contact.Tags) == 0 {
			return "", false
		}
		tags := make([]string, len(contact.Tags))
		for i, t := range contact.Tags {
			tags[i] = t.Tag
		}
		return strings.Join(tags, ","), true
	default:
		return "", false
	}
}
