package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/AlynxNeko/sangu/internal/core"
)

// CreateRule writes the rule header and all category allocations in one
// database transaction.
func (r *SQLiteRepository) CreateRule(ctx context.Context, rule *core.SplitRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO split_rules (id, user_id, name, is_active,
			tithe_enabled, tithe_percent, tithe_method_id,
			savings_enabled, savings_percent, core_percent, satellite_percent,
			core_method_id, satellite_method_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.UserID, rule.Name, boolToInt(rule.Active),
		boolToInt(rule.TitheEnabled), rule.TithePercent, rule.TitheMethodID,
		boolToInt(rule.SavingsEnabled), rule.SavingsPercent, rule.CorePercent, rule.SatellitePercent,
		rule.CoreMethodID, rule.SatelliteMethodID,
	)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}

	if err := insertAllocations(ctx, tx, rule); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetRule(ctx context.Context, userID, id string) (*core.SplitRule, error) {
	rule, err := scanRule(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, is_active,
			tithe_enabled, tithe_percent, tithe_method_id,
			savings_enabled, savings_percent, core_percent, satellite_percent,
			core_method_id, satellite_method_id
		FROM split_rules WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return nil, err
	}
	if err := r.loadAllocations(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// GetActiveRule returns the user's single active rule, or ErrNotFound when
// no rule is active. The lookup happens here rather than in clients so the
// choice cannot go stale between a list call and an allocation.
func (r *SQLiteRepository) GetActiveRule(ctx context.Context, userID string) (*core.SplitRule, error) {
	rule, err := scanRule(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, is_active,
			tithe_enabled, tithe_percent, tithe_method_id,
			savings_enabled, savings_percent, core_percent, satellite_percent,
			core_method_id, satellite_method_id
		FROM split_rules WHERE user_id = ? AND is_active = 1`, userID))
	if err != nil {
		return nil, err
	}
	if err := r.loadAllocations(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *SQLiteRepository) ListRules(ctx context.Context, userID string) ([]core.SplitRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, is_active,
			tithe_enabled, tithe_percent, tithe_method_id,
			savings_enabled, savings_percent, core_percent, satellite_percent,
			core_method_id, satellite_method_id
		FROM split_rules WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []core.SplitRule
	for rows.Next() {
		var rule core.SplitRule
		if err := scanRuleFields(rows.Scan, &rule); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}

	for i := range rules {
		if err := r.loadAllocations(ctx, &rules[i]); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

// UpdateRule rewrites the rule header and replaces its allocations in one
// database transaction.
func (r *SQLiteRepository) UpdateRule(ctx context.Context, rule *core.SplitRule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE split_rules SET name = ?,
			tithe_enabled = ?, tithe_percent = ?, tithe_method_id = ?,
			savings_enabled = ?, savings_percent = ?, core_percent = ?, satellite_percent = ?,
			core_method_id = ?, satellite_method_id = ?
		WHERE id = ? AND user_id = ?`,
		rule.Name,
		boolToInt(rule.TitheEnabled), rule.TithePercent, rule.TitheMethodID,
		boolToInt(rule.SavingsEnabled), rule.SavingsPercent, rule.CorePercent, rule.SatellitePercent,
		rule.CoreMethodID, rule.SatelliteMethodID,
		rule.ID, rule.UserID,
	)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM rule_allocations WHERE rule_id = ?`, rule.ID); err != nil {
		return fmt.Errorf("clear rule allocations: %w", err)
	}
	if err := insertAllocations(ctx, tx, rule); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ActivateRule deactivates every rule the user has and activates the given
// one inside a single database transaction. Together with the partial
// unique index on (user_id) WHERE is_active = 1 this guarantees at most one
// active rule per user even under concurrent activations.
func (r *SQLiteRepository) ActivateRule(ctx context.Context, userID, ruleID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE split_rules SET is_active = 0 WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deactivate rules: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE split_rules SET is_active = 1 WHERE id = ? AND user_id = ?`, ruleID, userID)
	if err != nil {
		return fmt.Errorf("activate rule: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Rule activated", "rule_id", ruleID, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) DeleteRule(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM split_rules WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return requireRow(res)
}

func insertAllocations(ctx context.Context, tx *sql.Tx, rule *core.SplitRule) error {
	for i := range rule.Allocations {
		a := &rule.Allocations[i]
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		a.RuleID = rule.ID

		_, err := tx.ExecContext(ctx, `
			INSERT INTO rule_allocations (id, rule_id, category_id, percent)
			VALUES (?, ?, ?, ?)`,
			a.ID, rule.ID, a.CategoryID, a.Percent,
		)
		if err != nil {
			return fmt.Errorf("insert rule allocation: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) loadAllocations(ctx context.Context, rule *core.SplitRule) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, rule_id, category_id, percent
		FROM rule_allocations WHERE rule_id = ? ORDER BY percent DESC`, rule.ID)
	if err != nil {
		return fmt.Errorf("load rule allocations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a core.RuleAllocation
		if err := rows.Scan(&a.ID, &a.RuleID, &a.CategoryID, &a.Percent); err != nil {
			return fmt.Errorf("scan rule allocation: %w", err)
		}
		rule.Allocations = append(rule.Allocations, a)
	}
	return rows.Err()
}

func scanRule(row *sql.Row) (*core.SplitRule, error) {
	var rule core.SplitRule
	err := scanRuleFields(row.Scan, &rule)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func scanRuleFields(scan func(...any) error, rule *core.SplitRule) error {
	err := scan(&rule.ID, &rule.UserID, &rule.Name, &rule.Active,
		&rule.TitheEnabled, &rule.TithePercent, &rule.TitheMethodID,
		&rule.SavingsEnabled, &rule.SavingsPercent, &rule.CorePercent, &rule.SatellitePercent,
		&rule.CoreMethodID, &rule.SatelliteMethodID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("scan rule: %w", err)
	}
	return nil
}
