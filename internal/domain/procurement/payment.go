package procurement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state an order reached with a payment
type PaymentStatus string

const (
	PaymentPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentPaid          PaymentStatus = "PAID"
)

// PaymentMethod is how the money moved
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodUPI          PaymentMethod = "UPI"
	MethodCheque       PaymentMethod = "CHEQUE"
	MethodCard         PaymentMethod = "CARD"
	MethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodUPI, MethodCheque, MethodCard, MethodOther:
		return true
	}
	return false
}

// RemarkCompleted labels the payment that settles an order
const RemarkCompleted = "COMPLETED"

// InstallmentRemark labels the n-th part payment
func InstallmentRemark(n int) string {
	return fmt.Sprintf("INSTALLMENT_%d", n)
}

// Payment is one payment made against an order. Payments are append-only.
type Payment struct {
	ID              uuid.UUID
	PurchaseOrderID uuid.UUID
	PaidBy          uuid.UUID
	Amount          decimal.Decimal
	Method          PaymentMethod
	TransactionID   string
	// Remarks is the installment label
	Remarks string
	Notes   string
	Receipt *shared.MediaRef
	Status  PaymentStatus
	PaidAt  time.Time
}

// PaymentInput is what a payer submits
type PaymentInput struct {
	PaidBy        uuid.UUID
	Amount        decimal.Decimal
	Method        PaymentMethod
	TransactionID string
	Notes         string
	Receipt       *shared.MediaRef
}

// Validate checks the input on its own, without order state
func (in PaymentInput) Validate() error {
	if in.PaidBy == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidation, "Payer is required")
	}
	if !in.Amount.IsPositive() {
		return shared.NewDomainError(shared.CodeValidation, "Payment amount must be positive")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return shared.NewDomainError(shared.CodeValidation, "Payment amount cannot have more than 2 decimal places")
	}
	if !in.Method.IsValid() {
		return shared.NewDomainError(shared.CodeValidation, "Unknown payment method: "+string(in.Method))
	}
	return nil
}
