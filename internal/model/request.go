package model

// IdentifyItemRequest is the body of an item identification request.
// Either ScannedText or Image must be set.
type IdentifyItemRequest struct {
	ScannedText  string `json:"scannedText,omitempty"`
	Image        string `json:"image,omitempty"`
	StoreContext string `json:"storeContext,omitempty"`
}

// VerifyReceiptRequest is the body of a receipt audit request.
type VerifyReceiptRequest struct {
	ReceiptText  string `json:"receiptText,omitempty"`
	ReceiptImage string `json:"receiptImage,omitempty"`
	UserItems    []Item `json:"userItems"`
	StoreContext string `json:"storeContext,omitempty"`
}

// CreateSessionRequest starts a shopping session.
type CreateSessionRequest struct {
	StoreContext string `json:"storeContext,omitempty"`
}

// ItemRequest adds or edits a manually entered cart item.
type ItemRequest struct {
	Name  string `json:"name"`
	Price Money  `json:"price"`
}

// ScanResponse carries the id of the placeholder created for a scan.
type ScanResponse struct {
	ID int64 `json:"id"`
}

// SessionView is the client-facing state of a shopping session.
type SessionView struct {
	ID           string `json:"id"`
	StoreContext string `json:"storeContext"`
	Items        []Item `json:"items"`
	Total        Money  `json:"total"`
	Count        int    `json:"count"`
	Pending      int    `json:"pending"`
}

// AuditListResponse is a page of stored audits.
type AuditListResponse struct {
	Audits []AuditRecord `json:"audits"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}
