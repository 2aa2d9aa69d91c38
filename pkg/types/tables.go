package types

// Standard table names in the Ledger Store. The names match the worksheet
// layout the data was originally kept in.
const (
	OperatorsTable       = "Operators"
	SuppliesTable        = "Supplies"
	SupplyMovementsTable = "Historial_Insumos"
	ToolsTable           = "Herramientas"
	ToolMovementsTable   = "Historial_Herramientas"
)

// Bookkeeping tables. SequencesTable holds the id high-water mark per
// master table; JournalTable holds the write-ahead record of a persist that
// has not finished yet.
const (
	SequencesTable = "_sequences"
	JournalTable   = "_journal"
)

// StandardTableNames lists the five entity tables in persist order.
var StandardTableNames = []string{
	OperatorsTable,
	SuppliesTable,
	SupplyMovementsTable,
	ToolsTable,
	ToolMovementsTable,
}

// MasterTableNames lists the tables editable through master-data maintenance.
var MasterTableNames = []string{
	OperatorsTable,
	SuppliesTable,
	ToolsTable,
}

// LedgerTableNames lists the append-only movement ledgers.
var LedgerTableNames = []string{
	SupplyMovementsTable,
	ToolMovementsTable,
}

// tableAliases maps short CLI/API names to table names.
var tableAliases = map[string]string{
	"operators":          OperatorsTable,
	"supplies":           SuppliesTable,
	"tools":              ToolsTable,
	"supply-history":     SupplyMovementsTable,
	"tool-history":       ToolMovementsTable,
	OperatorsTable:       OperatorsTable,
	SuppliesTable:        SuppliesTable,
	ToolsTable:           ToolsTable,
	SupplyMovementsTable: SupplyMovementsTable,
	ToolMovementsTable:   ToolMovementsTable,
}

// ResolveTable returns the table name for a table name or alias.
// Returns ErrUnknownTable when name is neither.
func ResolveTable(name string) (string, error) {
	if t, ok := tableAliases[name]; ok {
		return t, nil
	}
	return "", ErrUnknownTable
}

// IsMasterTable reports whether name is one of MasterTableNames.
func IsMasterTable(name string) bool {
	for _, t := range MasterTableNames {
		if t == name {
			return true
		}
	}
	return false
}
