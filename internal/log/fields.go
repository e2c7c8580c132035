package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldExpenseName = "expense_name"
	FieldAmount      = "amount"
	FieldMonth       = "month"
	FieldParticipant = "participant"
	FieldTarget      = "target"
	FieldBackend     = "backend"
	FieldEventType   = "event_type"
	FieldEventID     = "event_id"
	FieldExpenses    = "expenses"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentBackend   = "backend"
	ComponentMenu      = "menu"
	ComponentScheduler = "scheduler"
)

// Operations defines standard operation names
const (
	OpAdd      = "add"
	OpEdit     = "edit"
	OpDelete   = "delete"
	OpSave     = "save"
	OpLoad     = "load"
	OpRemind   = "remind"
	OpMirror   = "mirror"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
