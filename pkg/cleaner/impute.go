// pkg/cleaner/impute.go
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/josefarias3108/projeto-jus/pkg/audit"
	"github.com/josefarias3108/projeto-jus/pkg/model"
)

// TextRule decides the replacement value for missing cells of text columns
// whose name matches its substrings. Matching is case-insensitive: every
// substring in All must be present, and at least one in Any when Any is set.
// A rule with neither is the catch-all.
type TextRule struct {
	Name       string
	Any        []string
	All        []string
	Fill       string
	Synthesize func(row int) string
}

// Matches reports whether the rule applies to the given column name.
func (r TextRule) Matches(column string) bool {
	column = strings.ToLower(column)
	for _, sub := range r.All {
		if !strings.Contains(column, sub) {
			return false
		}
	}
	if len(r.Any) == 0 {
		return true
	}
	for _, sub := range r.Any {
		if strings.Contains(column, sub) {
			return true
		}
	}
	return false
}

func (r TextRule) catchAll() bool {
	return len(r.Any) == 0 && len(r.All) == 0
}

// Policy is the declarative imputation policy: kind-level defaults plus an
// ordered list of text rules evaluated first match wins.
type Policy struct {
	TextRules    []TextRule
	SentinelDate time.Time
}

// DefaultPolicy returns the imputation rules for the legal-domain catalog.
// Fill values are the Portuguese placeholders persisted by the snapshots.
func DefaultPolicy() Policy {
	return Policy{
		SentinelDate: time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC),
		TextRules: []TextRule{
			{Name: "nome", Any: []string{"nome", "cliente", "advogado", "juiz"}, Fill: "Nome não informado"},
			{Name: "cpf", Any: []string{"cpf"}, Fill: "000.000.000-00"},
			{Name: "endereco", Any: []string{"endereco"}, Fill: "Endereço não informado"},
			{Name: "cidade", Any: []string{"cidade"}, Fill: "Cidade não informada"},
			{Name: "estado", Any: []string{"estado"}, Fill: "XX"},
			{Name: "oab", Any: []string{"oab"}, Fill: "OAB não informada"},
			{Name: "vara", Any: []string{"vara"}, Fill: "Vara não informada"},
			{Name: "numero_processo", All: []string{"numero", "processo"}, Synthesize: synthesizeProcessNumber},
			{Name: "padrao", Fill: "Não informado"},
		},
	}
}

// synthesizeProcessNumber builds a case-number placeholder unique within the
// run (current date plus row position), but not across runs.
func synthesizeProcessNumber(row int) string {
	return fmt.Sprintf("PROC-%s-%d", time.Now().Format("20060102"), row)
}

// Validate checks the policy at startup: every rule needs lowercase non-empty
// substrings and a fill value, and exactly the last rule must be the
// catch-all so every column name resolves to a documented default.
func (p Policy) Validate() error {
	if len(p.TextRules) == 0 {
		return errors.New("policy has no text rules")
	}
	if p.SentinelDate.IsZero() {
		return errors.New("policy has no sentinel date")
	}

	last := len(p.TextRules) - 1
	for i, rule := range p.TextRules {
		if rule.Name == "" {
			return fmt.Errorf("rule %d has no name", i)
		}
		if rule.Fill == "" && rule.Synthesize == nil {
			return fmt.Errorf("rule %q has neither a fill value nor a synthesizer", rule.Name)
		}
		for _, sub := range append(append([]string{}, rule.Any...), rule.All...) {
			if sub == "" {
				return fmt.Errorf("rule %q has an empty substring", rule.Name)
			}
			if sub != strings.ToLower(sub) {
				return fmt.Errorf("rule %q substring %q must be lowercase", rule.Name, sub)
			}
		}
		if rule.catchAll() && i != last {
			return fmt.Errorf("rule %q matches every column but is not last", rule.Name)
		}
		if i == last && !rule.catchAll() {
			return fmt.Errorf("last rule %q must be the catch-all", rule.Name)
		}
	}

	return nil
}

// MatchText returns the first rule matching the column name. The validated
// trailing catch-all guarantees a match.
func (p Policy) MatchText(column string) TextRule {
	for _, rule := range p.TextRules {
		if rule.Matches(column) {
			return rule
		}
	}
	return p.TextRules[len(p.TextRules)-1]
}

// eligibleForImputation reports whether a column takes imputed defaults.
// The identifier column and the table's referential keys are exempt; a
// synthesized foreign key would silently corrupt joins downstream.
func eligibleForImputation(column string, spec model.TableSpec) bool {
	if model.IsIdentifierColumn(column) {
		return false
	}
	for _, key := range spec.ReferentialKeys {
		if strings.EqualFold(column, key) {
			return false
		}
	}
	return true
}

// imputeNulls replaces every missing cell in eligible columns with the
// deterministic default chosen by the policy, records one validation audit
// entry, and returns the null counts (equal by construction).
func (c *DataCleaner) imputeNulls(
	ctx context.Context,
	ds *model.Dataset,
	spec model.TableSpec,
) (int, int, error) {
	found, treated := 0, 0

	for ci := range ds.Columns {
		col := &ds.Columns[ci]
		if !eligibleForImputation(col.Name, spec) {
			continue
		}

		colNulls := 0
		for ri := range col.Cells {
			if !col.Cells[ri].Null {
				continue
			}
			col.Cells[ri] = c.defaultFor(col, ri)
			colNulls++
		}
		if colNulls == 0 {
			// Fully populated columns stay silent.
			continue
		}

		found += colNulls
		treated += colNulls
		c.logger.Debug("Imputed missing values",
			zap.String("table", ds.Table),
			zap.String("column", col.Name),
			zap.String("kind", col.Kind.String()),
			zap.Int("nulls", colNulls))
	}

	status := audit.StatusSuccess
	if found > 0 {
		status = audit.StatusWarning
	}
	entry := audit.Entry{
		Table:         ds.Table,
		Action:        audit.ActionValidation,
		RowsProcessed: ds.RowCount(),
		NullsFound:    found,
		NullsTreated:  treated,
		Status:        status,
		Details:       fmt.Sprintf("Valores nulos encontrados e tratados: %d", treated),
	}
	if err := c.audit.Append(ctx, entry); err != nil {
		return found, treated, fmt.Errorf("failed to record imputation: %w", err)
	}

	return found, treated, nil
}

// defaultFor picks the replacement cell for a missing value by the column's
// declared kind, falling back to the text rules for text columns. Monetary
// (*valor*) columns are real-kind and fill with 0.0 like every other real.
func (c *DataCleaner) defaultFor(col *model.Column, row int) model.Cell {
	switch col.Kind {
	case model.KindInteger:
		return model.IntCell(0)
	case model.KindReal:
		return model.RealCell(0)
	case model.KindBoolean:
		return model.BoolCell(false)
	case model.KindTemporal:
		return model.TimeCell(c.policy.SentinelDate)
	default:
		rule := c.policy.MatchText(col.Name)
		if rule.Synthesize != nil {
			return model.TextCell(rule.Synthesize(row))
		}
		return model.TextCell(rule.Fill)
	}
}
