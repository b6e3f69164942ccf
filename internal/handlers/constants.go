package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgInvalidID          = "Invalid ID"
	ErrMsgPermissionDenied   = "Permission denied"
	ErrMsgNotFound           = "Not found"
	ErrMsgConflict           = "Conflicts with existing data"
	ErrMsgInternal           = "Internal server error"
)

// APIBasePath prefixes every versioned route
const APIBasePath = "/api/v1"

// maxJSONBody caps JSON request bodies
const maxJSONBody = 1 << 20
