package payman

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ContactDetails identifies the person behind a payee.
type ContactDetails struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phoneNumber,omitempty"`
}

// PayeeDetails is the body of a payee registration.
type PayeeDetails struct {
	Type              string         `json:"type"`
	Name              string         `json:"name"`
	AccountHolderName string         `json:"accountHolderName,omitempty"`
	AccountNumber     string         `json:"accountNumber,omitempty"`
	RoutingNumber     string         `json:"routingNumber,omitempty"`
	ContactDetails    ContactDetails `json:"contactDetails,omitempty"`
	Tags              []string       `json:"tags,omitempty"`
}

// Payee is a payment destination registered with the provider.
type Payee struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	Status         string         `json:"status,omitempty"`
	ContactDetails ContactDetails `json:"contactDetails,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
}

// SearchFilter narrows a payee search. Empty fields are ignored.
type SearchFilter struct {
	Name         string
	ContactEmail string
	Type         string
}

// PaymentRequest is a payment instruction. IdempotencyKey travels as a
// header so retried submissions are deduplicated by the provider.
type PaymentRequest struct {
	Amount         decimal.Decimal
	PayeeID        string
	Memo           string
	IdempotencyKey string
}

type paymentBody struct {
	AmountDecimal json.Number `json:"amountDecimal"`
	PayeeID       string      `json:"payeeId"`
	Memo          string      `json:"memo,omitempty"`
}

// Payment is the provider's confirmation of a submitted payment.
type Payment struct {
	Reference         string `json:"reference"`
	Status            string `json:"status"`
	ExternalReference string `json:"externalReference,omitempty"`
}

type balanceBody struct {
	Balance *decimal.Decimal `json:"balance"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (b errorBody) text() string {
	if b.Error.Message != "" {
		return b.Error.Message
	}
	return b.Message
}
