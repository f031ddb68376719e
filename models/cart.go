package models

// CustomizationsRequest lists customization names added to or removed from an item
type CustomizationsRequest struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// CartItemRequest represents one line of the verify-totals request.
// Exactly one of ProductID or PackageID must be present.
type CartItemRequest struct {
	ProductID             string                           `json:"productId,omitempty"`
	PackageID             string                           `json:"packageId,omitempty"`
	Quantity              *int                             `json:"quantity"`
	Customizations        *CustomizationsRequest           `json:"customizations,omitempty"`
	PackageCustomizations map[string]CustomizationsRequest `json:"packageCustomizations,omitempty"`
}

// VerifyTotalsRequest represents the request body for POST /api/cart/verify-totals
// Example request:
//
//	{ "items": [
//	    { "productId": "prod1", "quantity": 2, "customizations": {"added": ["Queso"], "removed": []} },
//	    { "packageId": "pkg1", "quantity": 1, "packageCustomizations": {"prod1": {"added": ["Queso"], "removed": []}} }
//	]}
type VerifyTotalsRequest struct {
	Items []CartItemRequest `json:"items"`
}

// ErrorResponse is the JSON body returned on client and server errors
type ErrorResponse struct {
	Message string `json:"message"`
}
