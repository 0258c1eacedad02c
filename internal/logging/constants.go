package logging

// Standardized field names for structured log entries.
const (
	FieldFile          = "file_path"
	FieldParser        = "parser"
	FieldSource        = "source"
	FieldAccount       = "account"
	FieldAccountKey    = "account_key"
	FieldTransactionID = "transaction_id"
	FieldCategory      = "category"
	FieldRule          = "rule"
	FieldRunID         = "run_id"
	FieldUser          = "user_id"
	FieldCount         = "count"
	FieldInserted      = "inserted"
	FieldDuplicates    = "duplicates"
	FieldRow           = "row"
	FieldReason        = "reason"
	FieldError         = "error"
)
