package models

import (
	"encoding/json"
	"errors"
)

type PropertyStatus string

const (
	PropertyStatusActive   PropertyStatus = "Active"
	PropertyStatusInactive PropertyStatus = "Inactive"
)

func (t *PropertyStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("property status must be string")
	}
	propertyStatuses := map[string]PropertyStatus{
		"Active":   PropertyStatusActive,
		"Inactive": PropertyStatusInactive,
	}
	var ok bool
	*t, ok = propertyStatuses[str]
	if !ok {
		return errors.New("invalid property status")
	}
	return nil
}

type UnitStatus string

const (
	UnitStatusVacant   UnitStatus = "Vacant"
	UnitStatusOccupied UnitStatus = "Occupied"
)

func (t *UnitStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("unit status must be string")
	}
	unitStatuses := map[string]UnitStatus{
		"Vacant":   UnitStatusVacant,
		"Occupied": UnitStatusOccupied,
	}
	var ok bool
	*t, ok = unitStatuses[str]
	if !ok {
		return errors.New("invalid unit status")
	}
	return nil
}

type LeaseStatus string

const (
	LeaseStatusActive     LeaseStatus = "Active"
	LeaseStatusTerminated LeaseStatus = "Terminated"
)

func (t *LeaseStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("lease status must be string")
	}
	leaseStatuses := map[string]LeaseStatus{
		"Active":     LeaseStatusActive,
		"Terminated": LeaseStatusTerminated,
	}
	var ok bool
	*t, ok = leaseStatuses[str]
	if !ok {
		return errors.New("invalid lease status")
	}
	return nil
}

type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "Draft"
	InvoiceStatusPending InvoiceStatus = "Pending"
	InvoiceStatusPaid    InvoiceStatus = "Paid"
	InvoiceStatusOverdue InvoiceStatus = "Overdue"
	InvoiceStatusVoid    InvoiceStatus = "Void"
)

func (t *InvoiceStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("invoice status must be string")
	}
	invoiceStatuses := map[string]InvoiceStatus{
		"Draft":   InvoiceStatusDraft,
		"Pending": InvoiceStatusPending,
		"Paid":    InvoiceStatusPaid,
		"Overdue": InvoiceStatusOverdue,
		"Void":    InvoiceStatusVoid,
	}
	var ok bool
	*t, ok = invoiceStatuses[str]
	if !ok {
		return errors.New("invalid invoice status")
	}
	return nil
}

type PaymentStatus string

const (
	PaymentStatusUnallocated PaymentStatus = "Unallocated"
	PaymentStatusAllocated   PaymentStatus = "Allocated"
)

func (t *PaymentStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("payment status must be string")
	}
	paymentStatuses := map[string]PaymentStatus{
		"Unallocated": PaymentStatusUnallocated,
		"Allocated":   PaymentStatusAllocated,
	}
	var ok bool
	*t, ok = paymentStatuses[str]
	if !ok {
		return errors.New("invalid payment status")
	}
	return nil
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "Cash"
	PaymentMethodMobileMoney  PaymentMethod = "MobileMoney"
	PaymentMethodBankTransfer PaymentMethod = "BankTransfer"
	PaymentMethodCheque       PaymentMethod = "Cheque"
	PaymentMethodCard         PaymentMethod = "Card"
)

func (t *PaymentMethod) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("payment method must be string")
	}
	paymentMethods := map[string]PaymentMethod{
		"Cash":         PaymentMethodCash,
		"MobileMoney":  PaymentMethodMobileMoney,
		"BankTransfer": PaymentMethodBankTransfer,
		"Cheque":       PaymentMethodCheque,
		"Card":         PaymentMethodCard,
	}
	var ok bool
	*t, ok = paymentMethods[str]
	if !ok {
		return errors.New("invalid payment method")
	}
	return nil
}

type UserRole string

const (
	UserRoleAdmin    UserRole = "Admin"
	UserRoleAgent    UserRole = "Agent"
	UserRoleLandlord UserRole = "Landlord"
)

func (t *UserRole) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("user role must be string")
	}
	userRoles := map[string]UserRole{
		"Admin":    UserRoleAdmin,
		"Agent":    UserRoleAgent,
		"Landlord": UserRoleLandlord,
	}
	var ok bool
	*t, ok = userRoles[str]
	if !ok {
		return errors.New("invalid user role")
	}
	return nil
}
