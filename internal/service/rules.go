package service

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog"

	"github.com/poolview/poolview/internal/config"
	"github.com/poolview/poolview/internal/state"
)

// Alert is one fired highlight rule, rendered as a badge on the dashboard.
type Alert struct {
	RuleID   string `json:"ruleId"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// rule is a compiled highlight expression evaluated against each snapshot.
// Expressions see the snapshot sections by name, e.g.
//
//	spa.WaterTemp < spa.Heater.Setpoint.Current - 10
//	meta.FreezeMode && !pool.Active
type rule struct {
	cfg     config.RuleConfig
	program *vm.Program
}

func newRules(cfgs []config.RuleConfig) ([]*rule, error) {
	rules := make([]*rule, 0, len(cfgs))
	seen := make(map[string]struct{}, len(cfgs))
	for _, cfg := range cfgs {
		id := strings.TrimSpace(cfg.ID)
		if id == "" {
			return nil, fmt.Errorf("rule id must not be empty")
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("duplicate rule id %q", id)
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(cfg.When) == "" {
			return nil, fmt.Errorf("rule %s: when expression must not be empty", id)
		}
		program, err := expr.Compile(cfg.When, expr.Env(map[string]interface{}{}), expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("rule %s: compile: %w", id, err)
		}
		rules = append(rules, &rule{cfg: cfg, program: program})
	}
	return rules, nil
}

// evaluateRules runs every rule against the snapshot. A rule that errors or
// yields a non-bool is logged and skipped; it never breaks rendering.
func evaluateRules(rules []*rule, snap *state.Snapshot, logger zerolog.Logger) []Alert {
	if len(rules) == 0 {
		return nil
	}
	env := ruleEnv(snap)
	alerts := make([]Alert, 0, len(rules))
	for _, r := range rules {
		out, err := expr.Run(r.program, env)
		if err != nil {
			logger.Warn().Err(err).Str("rule", r.cfg.ID).Msg("rule evaluation failed")
			continue
		}
		fired, ok := out.(bool)
		if !ok {
			logger.Warn().Str("rule", r.cfg.ID).Msgf("rule yielded %T, expected bool", out)
			continue
		}
		if !fired {
			continue
		}
		severity := r.cfg.Severity
		if severity == "" {
			severity = "warning"
		}
		alerts = append(alerts, Alert{RuleID: r.cfg.ID, Severity: severity, Message: r.cfg.Message})
	}
	if len(alerts) == 0 {
		return nil
	}
	return alerts
}

func ruleEnv(snap *state.Snapshot) map[string]interface{} {
	env := map[string]interface{}{
		"meta":   snap.Meta,
		"bodies": snap.Status.Bodies,
		"pumps":  snap.Status.Pumps,
	}
	for i := range snap.Status.Bodies {
		body := snap.Status.Bodies[i]
		env[body.Name] = body
	}
	return env
}
