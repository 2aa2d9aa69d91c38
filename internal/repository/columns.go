package repository

// Column headers. They follow the worksheet layout the data was first kept
// in, so existing tables load without conversion.
const (
	ColOperatorName = "Nombre_Operador"
	ColOperatorType = "Tipo"

	ColID          = "ID"
	ColSupplyName  = "Insumo"
	ColDescription = "Descripcion"
	ColQuantity    = "Cantidad"
	ColUnit        = "Unidad"
	ColMinimum     = "Stock_Minimo"

	ColAssetTag  = "ID_Herramienta"
	ColToolName  = "Herramienta"
	ColBrand     = "Marca"
	ColCondition = "Estado"
	ColCustodian = "Responsable"

	ColMovementID   = "ID_Movimiento"
	ColTimestamp    = "Fecha_Hora"
	ColSupplyID     = "ID_Insumo"
	ColKind         = "Descripcion"
	ColCounterparty = "Entregado_A"
	ColToolID       = "ID_Herramienta"
	ColAction       = "Movimiento"
	ColParty        = "Responsable"
	ColDetail       = "Detalle"

	ColSeqTable = "Tabla"
	ColSeqLast  = "Ultimo_ID"
)

// LegacyTimeLayout is the timestamp layout of rows written before RFC 3339
// timestamps were used.
const LegacyTimeLayout = "02/01/2006 15:04"
