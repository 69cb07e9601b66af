package model

// PaymentMode selects how a placed order is paid.
type PaymentMode string

const (
	PaymentFull           PaymentMode = "full"
	PaymentCashOnDelivery PaymentMode = "cod"
)

// PaymentPlan describes the pay-in-full option of a priced preview.
type PaymentPlan struct {
	PayableAmount  int64 `json:"payable_amount"`  // paise
	DiscountAmount int64 `json:"discount_amount"` // paise
}

// CODPlan describes the cash-on-delivery split.
type CODPlan struct {
	PayNow         int64 `json:"pay_now"`
	PayOnDelivery  int64 `json:"pay_on_delivery"`
	DiscountAmount int64 `json:"discount_amount"`
}

// PaymentSummary breaks the payable amount down per payment plan.
type PaymentSummary struct {
	FullPayment    *PaymentPlan `json:"full_payment,omitempty"`
	CashOnDelivery *CODPlan     `json:"cash_on_delivery,omitempty"`
}

// CheckoutDetails carries the buyer and address display fields fetched in
// the checkout-details stage.
type CheckoutDetails struct {
	CustomerName           string `json:"customer_name"`
	BillingAddressDisplay  string `json:"billing_address_display"`
	ShippingAddressDisplay string `json:"shipping_address_display"`
	CustomerGSTIN          string `json:"customer_gstin"`
	CompanyGSTIN           string `json:"company_gstin"`
	PlaceOfSupply          string `json:"place_of_supply"`
}

// CheckoutContext is the ephemeral merged result of the proceed and
// checkout-details stages. Created when checkout starts, discarded when it
// is abandoned or an order is placed. Detail fields win on collision.
type CheckoutContext struct {
	Items          []CartLine      `json:"items"`
	GrandTotal     int64           `json:"grand_total"` // paise
	DiscountAmount int64           `json:"discount_amount"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	PaymentSummary *PaymentSummary `json:"payment_summary,omitempty"`
	Details        CheckoutDetails `json:"details"`
}

// Payable returns the amount to charge for the given mode, falling back to
// the grand total when the server sent no per-plan breakdown.
func (c *CheckoutContext) Payable(mode PaymentMode) int64 {
	if c.PaymentSummary != nil {
		switch mode {
		case PaymentFull:
			if c.PaymentSummary.FullPayment != nil {
				return c.PaymentSummary.FullPayment.PayableAmount
			}
		case PaymentCashOnDelivery:
			if c.PaymentSummary.CashOnDelivery != nil {
				return c.PaymentSummary.CashOnDelivery.PayNow
			}
		}
	}
	if mode == PaymentCashOnDelivery {
		return 0
	}
	return c.GrandTotal
}

// OrderPlacementResult is produced once by a successful place-order call
// and consumed to build the payment handoff. Never mutated afterward.
type OrderPlacementResult struct {
	OrderID     string      `json:"order_id"`
	GrandTotal  int64       `json:"grand_total"`
	PaymentMode PaymentMode `json:"payment_mode"`
}

// ShippingAddress is a saved customer address as the backend stores it.
// Geography fields hold backend identifiers, not display names.
type ShippingAddress struct {
	Name         string `json:"name"`
	AddressTitle string `json:"address_title"`
	CustomerName string `json:"customer_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	Marketplace  string `json:"marketplace"`
	Tahsil       string `json:"tahsil"`
	District     string `json:"district"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Country      string `json:"country"`
	EmailID      string `json:"email_id"`
	Phone        string `json:"phone"`
	IsPrimary    int    `json:"is_primary"`
}

// NewAddress is the shape submitted when saving a shipping address.
type NewAddress struct {
	AddressTitle string `json:"address_title"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	Marketplace  string `json:"marketplace"`
	Tahsil       string `json:"tahsil"`
	District     string `json:"district"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Country      string `json:"country"`
	EmailID      string `json:"email_id"`
	Phone        string `json:"phone"`
}
