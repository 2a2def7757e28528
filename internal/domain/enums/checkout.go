package enums

type PaymentStatus string

const (
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusUnpaid            PaymentStatus = "unpaid"
	PaymentStatusNoPaymentRequired PaymentStatus = "no_payment_required"
)

type CheckoutMode string

const (
	CheckoutModePayment CheckoutMode = "payment"
)

type EventType string

const (
	EventCheckoutSessionCompleted EventType = "checkout.session.completed"
)

// Metadata keys written at session creation and read back on settlement.
const (
	MetadataUserID    = "userId"
	MetadataPackageID = "packageId"
	MetadataCoins     = "coins"
	MetadataBonus     = "bonus"
)
