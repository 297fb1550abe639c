package retention

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MapPolicy converts one row of the policy query into a Policy. The row
// carries exactly eight positional fields: schema, table, fully-qualified
// table, partition column, partition value, strategy, reallocation attribute
// name and value. The last two are NULL for delete policies.
func MapPolicy(row []any) (Policy, error) {
	if len(row) != 8 {
		return Policy{}, fmt.Errorf("policy row: expected 8 fields, got %d", len(row))
	}

	schema, err := stringField(row[0], "table_schema")
	if err != nil {
		return Policy{}, err
	}
	table, err := stringField(row[1], "table_name")
	if err != nil {
		return Policy{}, err
	}
	fqn, err := stringField(row[2], "table_fqn")
	if err != nil {
		return Policy{}, err
	}
	column, err := stringField(row[3], "partition_column")
	if err != nil {
		return Policy{}, err
	}
	strategy, err := stringField(row[5], "strategy")
	if err != nil {
		return Policy{}, err
	}
	attr, err := optionalStringField(row[6], "reallocation_attribute_name")
	if err != nil {
		return Policy{}, err
	}
	attrValue, err := optionalStringField(row[7], "reallocation_attribute_value")
	if err != nil {
		return Policy{}, err
	}

	return Policy{
		SchemaName:        schema,
		TableName:         table,
		TableFQN:          fqn,
		ColumnName:        column,
		Value:             row[4],
		Strategy:          Strategy(strategy),
		ReallocationAttr:  attr,
		ReallocationValue: attrValue,
	}, nil
}

func stringField(v any, name string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("policy field %s: expected string, got %T", name, v)
	}
	return s, nil
}

func optionalStringField(v any, name string) (string, error) {
	if v == nil {
		return "", nil
	}
	return stringField(v, name)
}

// PlanPolicy translates a single policy into executable actions. A delete
// policy yields one delete action. A reallocate policy yields the
// reallocation followed by a tracking update that records the partition
// value as the new high-water mark; callers must feed policies in ascending
// partition-value order, which is what makes the unconditional overwrite in
// the tracking statement safe. An unknown strategy yields no actions and a
// warning; it never fails the batch.
func PlanPolicy(p Policy, logger *zap.Logger) []Action {
	switch normalizeStrategy(p.Strategy) {
	case StrategyDelete:
		return []Action{deleteAction(p)}
	case StrategyReallocate:
		return []Action{reallocateAction(p), trackAction(p)}
	default:
		logger.Warn("ignoring unknown retention strategy",
			zap.String("strategy", string(p.Strategy)),
			zap.String("table", p.TableFQN))
		return nil
	}
}

// PlanActions plans a full batch, preserving input order across records.
func PlanActions(policies []Policy, logger *zap.Logger) []Action {
	var actions []Action
	for _, p := range policies {
		actions = append(actions, PlanPolicy(p, logger)...)
	}
	return actions
}

func normalizeStrategy(s Strategy) Strategy {
	return Strategy(strings.ToLower(strings.TrimSpace(string(s))))
}

func deleteAction(p Policy) Action {
	return Action{
		Kind:       ActionDelete,
		SchemaName: p.SchemaName,
		TableName:  p.TableName,
		TableFQN:   p.TableFQN,
		ColumnName: p.ColumnName,
		Value:      p.Value,
		SQL: fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
			qualifiedTable(p.SchemaName, p.TableName), QuoteIdent(p.ColumnName)),
		Args: []any{p.Value},
	}
}

// reallocateAction moves the partition to nodes carrying the configured
// routing attribute. ALTER TABLE does not accept bound parameters, so the
// partition value and attribute value are rendered as escaped literals.
func reallocateAction(p Policy) Action {
	return Action{
		Kind:       ActionReallocate,
		SchemaName: p.SchemaName,
		TableName:  p.TableName,
		TableFQN:   p.TableFQN,
		ColumnName: p.ColumnName,
		Value:      p.Value,
		AttrName:   p.ReallocationAttr,
		AttrValue:  p.ReallocationValue,
		SQL: fmt.Sprintf(`ALTER TABLE %s PARTITION (%s = %s) SET (%s = %s)`,
			qualifiedTable(p.SchemaName, p.TableName),
			QuoteIdent(p.ColumnName),
			sqlLiteral(p.Value),
			QuoteIdent("routing.allocation.require."+p.ReallocationAttr),
			sqlLiteral(p.ReallocationValue)),
	}
}

func trackAction(p Policy) Action {
	return Action{
		Kind:       ActionTrack,
		SchemaName: p.SchemaName,
		TableName:  p.TableName,
		TableFQN:   p.TableFQN,
		ColumnName: p.ColumnName,
		Value:      p.Value,
		SQL: `INSERT INTO doc.retention_tracking (table_schema, table_name, last_partition_value)
VALUES ($1, $2, $3)
ON CONFLICT (table_schema, table_name) DO UPDATE SET last_partition_value = excluded.last_partition_value`,
		Args: []any{p.SchemaName, p.TableName, p.Value},
	}
}

// QuoteIdent quotes a SQL identifier the way CrateDB's QUOTE_IDENT does:
// wrapped in double quotes with embedded quotes doubled.
func QuoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func qualifiedTable(schema, table string) string {
	return QuoteIdent(schema) + "." + QuoteIdent(table)
}

// sqlLiteral renders a partition value for statements that cannot take bound
// parameters. Strings are single-quoted with embedded quotes doubled.
func sqlLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case time.Time:
		return "'" + t.UTC().Format("2006-01-02T15:04:05.000Z") + "'"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(t), "'", "''") + "'"
	}
}
