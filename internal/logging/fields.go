package logging

// Structured field names shared by every component.
const (
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	FieldService = "service"

	FieldConnID  = "conn_id"
	FieldAddr    = "addr"
	FieldEvent   = "event"
	FieldName    = "name"
	FieldClients = "clients"
	FieldOnline  = "online"
)
