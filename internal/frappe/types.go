// Package frappe implements the client for the Frappe-style commerce
// backend. All backend-specific types, envelope handling, and HTTP client
// logic live here.
package frappe

import (
	"encoding/json"

	"shopfront/internal/model"
)

// === Envelope ===

// envelope is the message wrapper every backend method returns:
//
//	{"message": {"status": true, "message": "...", "data": ...}}
//
// status != true is a business failure regardless of HTTP-level success.
type envelope struct {
	Message envelopeBody `json:"message"`
}

type envelopeBody struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// === Cart ===

// CartItem is one line in a get_cart response. Rate, MRP, and Amount are
// rupee amounts as JSON numbers.
type CartItem struct {
	Item     string  `json:"item"` // item code, the canonical product ID
	ItemName string  `json:"item_name"`
	Rate     float64 `json:"rate"`
	MRP      float64 `json:"mrp"`
	Quantity int     `json:"quantity"`
	Amount   float64 `json:"amount"`
	Discount float64 `json:"discount"`
	Image    string  `json:"image"`
	Brand    string  `json:"brand"`
}

// CartData is the payload of get_cart.
type CartData struct {
	Items       []CartItem `json:"items"`
	TotalAmount float64    `json:"total_amount"`
}

// CartCountData is the payload of get_cart_count.
type CartCountData struct {
	Count int `json:"count"`
}

// addCartRequest is the body of add_cart.
type addCartRequest struct {
	Items []addCartItem `json:"items"`
}

type addCartItem struct {
	Item            string `json:"item"`
	Quantity        int    `json:"quantity"`
	IsMOQApplicable int    `json:"is_moq_applicable"`
}

// updateItemRequest is the body of update_cart_item.
type updateItemRequest struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// deleteItemRequest is the body of delete_cart_item.
type deleteItemRequest struct {
	Item string `json:"item"`
}

// === Checkout ===

// OrderItem is a line submitted to proceed and place_order. The backend
// expects quantity as a string here, unlike the cart endpoints.
type OrderItem struct {
	Item     string `json:"item"`
	Quantity string `json:"quantity"`
}

// orderRequest is the body of proceed and place_order. PaymentType and
// TransactionAmount are present only for the payment-bearing calls.
type orderRequest struct {
	Items             []OrderItem `json:"items"`
	DeliveryDate      *string     `json:"delivery_date"`
	Warehouse         string      `json:"warehouse"`
	Transporter       string      `json:"transporter"`
	CouponCode        string      `json:"coupon_code"`
	PaymentType       string      `json:"payment_type,omitempty"`
	TransactionAmount string      `json:"transaction_amount,omitempty"`
}

// ProceedData is the priced order preview returned by proceed.
type ProceedData struct {
	Items          []CartItem      `json:"items"`
	GrandTotal     float64         `json:"grand_total"`
	DiscountAmount float64         `json:"discount_amount"`
	PaymentSummary *PaymentSummary `json:"payment_summary,omitempty"`
}

// PaymentSummary breaks the payable amount down per payment plan.
type PaymentSummary struct {
	FullPayment    *PaymentPlan `json:"full_payment,omitempty"`
	CashOnDelivery *CODPlan     `json:"cash_on_delivery,omitempty"`
}

// PaymentPlan describes the pay-in-full option.
type PaymentPlan struct {
	PayableAmount  float64 `json:"payable_amount"`
	DiscountAmount float64 `json:"discount_amount"`
}

// CODPlan describes the cash-on-delivery split.
type CODPlan struct {
	PayNow         float64 `json:"pay_now"`
	PayOnDelivery  float64 `json:"pay_on_delivery"`
	DiscountAmount float64 `json:"discount_amount"`
}

// CheckoutDetailsData is the payload of checkout_details: buyer and
// address display fields merged over the proceed preview.
type CheckoutDetailsData struct {
	CustomerName           string `json:"customer_name"`
	BillingAddressDisplay  string `json:"billing_address_display"`
	ShippingAddressDisplay string `json:"shipping_address_display"`
	CustomerGSTIN          string `json:"customer_gstin"`
	CompanyGSTIN           string `json:"company_gstin"`
	PlaceOfSupply          string `json:"place_of_supply"`
}

// rupeeAmount is a rupee amount the backend emits either as a JSON number
// or as a decimal string (place_order echoes the transaction_amount string
// it was sent). Normalized to paise on decode.
type rupeeAmount int64

func (a *rupeeAmount) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = rupeeAmount(model.ParsePaise(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*a = rupeeAmount(model.PaiseFromRupees(f))
	return nil
}

// PlaceOrderData is the payload of place_order. SalesOrder is the order
// identifier; an empty value means the order was NOT created even when
// status is true.
type PlaceOrderData struct {
	SalesOrder string      `json:"sales_order"`
	GrandTotal rupeeAmount `json:"grand_total"`
}

// Saved shipping addresses reuse the model types directly; their JSON tags
// already match the backend field names.
