package services

import (
	"context"
	"fmt"

	"github.com/AlynxNeko/sangu/internal/core"
	"github.com/AlynxNeko/sangu/internal/storage"
)

// RuleService manages income allocation rules.
type RuleService struct {
	storage *storage.SQLiteRepository
}

func NewRuleService(storage *storage.SQLiteRepository) *RuleService {
	return &RuleService{storage: storage}
}

func (s *RuleService) Create(ctx context.Context, rule *core.SplitRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	// New rules start inactive; activation is a separate explicit step.
	rule.Active = false
	return s.storage.CreateRule(ctx, rule)
}

func (s *RuleService) Update(ctx context.Context, rule *core.SplitRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateRule(ctx, rule)
}

func (s *RuleService) Get(ctx context.Context, userID, id string) (*core.SplitRule, error) {
	return s.storage.GetRule(ctx, userID, id)
}

func (s *RuleService) List(ctx context.Context, userID string) ([]core.SplitRule, error) {
	return s.storage.ListRules(ctx, userID)
}

func (s *RuleService) Activate(ctx context.Context, userID, ruleID string) error {
	return s.storage.ActivateRule(ctx, userID, ruleID)
}

func (s *RuleService) GetActive(ctx context.Context, userID string) (*core.SplitRule, error) {
	return s.storage.GetActiveRule(ctx, userID)
}

func (s *RuleService) Delete(ctx context.Context, userID, id string) error {
	return s.storage.DeleteRule(ctx, userID, id)
}

// Preview runs the allocation waterfall for a gross amount without writing
// anything. With an empty ruleID the user's active rule is used.
func (s *RuleService) Preview(ctx context.Context, userID, ruleID string, gross core.Money) (*core.AllocationResult, error) {
	if err := gross.Validate(); err != nil {
		return nil, err
	}

	var (
		rule *core.SplitRule
		err  error
	)
	if ruleID == "" {
		rule, err = s.storage.GetActiveRule(ctx, userID)
	} else {
		rule, err = s.storage.GetRule(ctx, userID, ruleID)
	}
	if err != nil {
		return nil, fmt.Errorf("load rule: %w", err)
	}

	result := core.AllocateIncome(gross, *rule)
	return &result, nil
}
