package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gobahrain/gobahrain/internal/domain"
)

type rawPlanItem struct {
	Spot   string          `json:"spot"`
	Time   string          `json:"time"`
	Type   string          `json:"type"`
	Lat    json.RawMessage `json:"lat"`
	Lng    json.RawMessage `json:"lng"`
	Reason string          `json:"reason"`
}

// ParseDayPlan reads a JSON array of plan items: the whole text first, then each bracketed
// substring in order. Items with an empty spot or an unknown time or type are dropped.
// Fails with domain.ErrPlanParse when no array parses or nothing valid remains.
func ParseDayPlan(raw string) ([]domain.PlanItem, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("empty response: %w", domain.ErrPlanParse)
	}

	attempts := []string{text}
	if unfenced, ok := stripFence(text); ok {
		attempts = append(attempts, unfenced)
	}
	attempts = append(attempts, balanced(text, '[', ']')...)

	parsedArray := false
	for _, attempt := range attempts {
		var items []rawPlanItem
		if err := json.Unmarshal([]byte(attempt), &items); err != nil {
			continue
		}
		parsedArray = true
		if plan := normalizeItems(items); len(plan) > 0 {
			return plan, nil
		}
	}
	if parsedArray {
		return nil, fmt.Errorf("no valid plan items: %w", domain.ErrPlanParse)
	}
	return nil, fmt.Errorf("no JSON array found in response: %w", domain.ErrPlanParse)
}

func normalizeItems(items []rawPlanItem) []domain.PlanItem {
	out := make([]domain.PlanItem, 0, len(items))
	for _, it := range items {
		spot := strings.TrimSpace(it.Spot)
		if spot == "" {
			continue
		}
		tod, err := domain.ParseTimeOfDay(it.Time)
		if err != nil {
			continue
		}
		typ, err := domain.ParsePlanType(it.Type)
		if err != nil {
			continue
		}
		out = append(out, domain.PlanItem{
			Spot:   spot,
			Time:   tod,
			Type:   typ,
			Lat:    number(it.Lat),
			Lng:    number(it.Lng),
			Reason: strings.TrimSpace(it.Reason),
		})
	}
	return out
}

// number reads a JSON number or numeric string; anything else is 0.
func number(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}
