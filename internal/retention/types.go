package retention

// Strategy decides what happens to a partition whose retention period has
// passed.
type Strategy string

const (
	StrategyDelete     Strategy = "delete"
	StrategyReallocate Strategy = "reallocate"
)

// Policy is one retention rule applied to one concrete partition. Value is
// opaque to this package; it is bound as a query parameter and compared only
// by the database.
type Policy struct {
	SchemaName string
	TableName  string
	TableFQN   string
	ColumnName string
	Value      any
	Strategy   Strategy

	// Set only for StrategyReallocate.
	ReallocationAttr  string
	ReallocationValue string
}

type ActionKind string

const (
	ActionDelete     ActionKind = "delete"
	ActionReallocate ActionKind = "reallocate"
	ActionTrack      ActionKind = "track"
)

// Action is one executable SQL statement derived from a policy. SQL uses
// bound parameters wherever the wire protocol allows; identifiers and the
// partition clause of ALTER TABLE are quoted literals.
type Action struct {
	Kind       ActionKind
	SchemaName string
	TableName  string
	TableFQN   string
	ColumnName string
	Value      any
	AttrName   string
	AttrValue  string

	SQL  string
	Args []any
}
