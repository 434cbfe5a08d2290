// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess          = "success"
	KeyError            = "error"
	KeyInternalError    = "error.internal"
	KeyUnavailable      = "error.unavailable"
	KeyConflict         = "error.conflict"
	KeyRateLimited      = "error.rate_limited"
	KeyNothingToProcess = "queue.nothing_to_process"

	// Authentication
	KeyAuthRequired       = "auth.required"
	KeyAuthInvalidToken   = "auth.invalid_token"
	KeyAuthTokenExpired   = "auth.token_expired"
	KeyCustomerOnly       = "auth.customer_only"
	KeyAdminAccessDenied  = "admin.access_denied"
	KeyAdminActionSuccess = "admin.action_success"

	// Products
	KeyProductCreated    = "product.created"
	KeyProductUpdated    = "product.updated"
	KeyProductDeleted    = "product.deleted"
	KeyProductNotFound   = "product.not_found"
	KeyProductOutOfStock = "product.out_of_stock"
	KeyProductStale      = "product.stale"

	// Customers
	KeyCustomerCreated  = "customer.created"
	KeyCustomerNotFound = "customer.not_found"
	KeyCustomerExists   = "customer.exists"

	// Cart
	KeyCartItemAdded    = "cart.item_added"
	KeyCartItemUpdated  = "cart.item_updated"
	KeyCartItemRemoved  = "cart.item_removed"
	KeyCartItemNotFound = "cart.not_found"
	KeyCartEmpty        = "cart.empty"

	// Orders
	KeyOrderPlaced         = "order.placed"
	KeyOrderNotFound       = "order.not_found"
	KeyOrderShipped        = "order.shipped"
	KeyOrderCannotShip     = "order.cannot_ship"
	KeyCheckoutFailed      = "checkout.failed"
	KeyOrderQueued         = "order.queued"
	KeyInventoryQueued     = "inventory.queued"
	KeyQueueMessageHandled = "queue.message_processed"
	KeyQueueNotFound       = "queue.not_found"
	KeyQueueMalformed      = "queue.malformed_message"

	// Logs
	KeyLogCreated  = "log.created"
	KeyLogNotFound = "log.not_found"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileInvalidType   = "file.invalid_type"
	KeyFileTooLarge      = "file.too_large"
)
