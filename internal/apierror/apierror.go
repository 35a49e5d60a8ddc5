// Package apierror provides the error envelopes returned by the product API.
// Handlers never write raw driver or ORM errors to clients.
package apierror

// Client-facing messages.
const (
	MsgProductNotFound    = "Producto no encontrado"
	MsgDuplicateOnCreate  = "El producto ya existe con ese nombre"
	MsgDuplicateOnRename  = "Ya existe un producto con ese nombre"
	MsgInvalidID          = "ID invalido"
	MsgInvalidJSON        = "JSON invalido"
	MsgValidation         = "Error de validacion"
	MsgInternal           = "Error interno del servidor"
	MsgTooManyRequests    = "Demasiadas solicitudes. Intente nuevamente en un momento."
	MsgReactivationDenied = "Un producto desactivado no puede reactivarse"
)

// APIError is the envelope for every 4xx/5xx response.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError carries the failed constraint per JSON field.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: MsgValidation, Fields: fields}
}
