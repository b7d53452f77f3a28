package models

import "encoding/json"

// DocumentRequest is a resident's request for a barangay document.
type DocumentRequest struct {
	MongoID      FlexString `json:"_id"`
	ID           FlexString `json:"id"`
	DocumentType string     `json:"documentType"`
	Purpose      string     `json:"purpose"`
	Quantity     FlexNumber `json:"quantity"`
	Notes        string     `json:"notes,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    FlexTime   `json:"createdAt"`
	UpdatedAt    FlexTime   `json:"updatedAt"`
}

// Key returns the request's source id.
func (r DocumentRequest) Key() string {
	id, _ := FirstPresent(r.MongoID, r.ID)
	return id
}

// NewDocumentRequest is the body posted to /api/document-requests.
type NewDocumentRequest struct {
	DocumentType string `json:"documentType"`
	Purpose      string `json:"purpose"`
	Quantity     int    `json:"quantity"`
	Notes        string `json:"notes,omitempty"`
}

// DocumentRequestRow is one line of the requests table and its export.
type DocumentRequestRow struct {
	ID            string `json:"id"`
	DocumentType  string `json:"documentType"`
	Purpose       string `json:"purpose"`
	Status        string `json:"status"`
	DateRequested string `json:"dateRequested"`
	OnChain       bool   `json:"onChain"`
}

// PaymentStatusGate decides whether the resident may file document requests.
type PaymentStatusGate struct {
	CanRequestDocuments bool            `json:"canRequestDocuments"`
	PaymentStatus       json.RawMessage `json:"paymentStatus"`
	Message             string          `json:"message"`
}

// PermissiveGate is substituted whenever the payment-status endpoint cannot
// give an answer.
func PermissiveGate() PaymentStatusGate {
	return PaymentStatusGate{
		CanRequestDocuments: true,
		PaymentStatus:       json.RawMessage("null"),
		Message:             "Payment status is unavailable; document requests are allowed.",
	}
}

// DocumentType is one entry of the requestable-document catalog.
type DocumentType struct {
	Code            string `json:"code" yaml:"code"`
	Name            string `json:"name" yaml:"name"`
	RequiresPurpose bool   `json:"requiresPurpose" yaml:"requires_purpose"`
}

// PublicDocument is a barangay document published to residents.
type PublicDocument struct {
	MongoID     FlexString `json:"_id"`
	ID          FlexString `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	FileName    string     `json:"fileName"`
	MimeType    string     `json:"mimeType"`
	CreatedAt   FlexTime   `json:"createdAt"`
}

// Key returns the document's source id.
func (d PublicDocument) Key() string {
	id, _ := FirstPresent(d.MongoID, d.ID)
	return id
}
