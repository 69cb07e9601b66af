package checkout

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"shopfront/internal/model"
	"shopfront/internal/nav"
)

// Handoff is the assembled payment redirect for a placed order.
type Handoff struct {
	OrderID string
	URL     string
	Token   string
}

// PaymentToken encodes the order and buyer fields the payment surface
// expects: a base64 form-encoded query string. Amount is carried in
// rupees with two decimals.
func (o *Orchestrator) PaymentToken(result *model.OrderPlacementResult, buyer Buyer) string {
	v := url.Values{}
	v.Set("ProductInfo", o.cfg.ProductInfo)
	v.Set("FirstName", buyer.Name)
	v.Set("Email", buyer.Email)
	v.Set("Amount", model.FormatRupees(result.GrandTotal))
	v.Set("Phone", buyer.Phone)
	v.Set("UserId", buyer.UserID)
	v.Set("Order_id", result.OrderID)
	v.Set("Call_Back_URL", o.cfg.CallbackURL)
	return base64.StdEncoding.EncodeToString([]byte(v.Encode()))
}

// PaymentHandoff builds the payment URL for a placed order and moves the
// navigation machine to the payment screen. Cash-on-delivery orders with
// nothing to pay now go straight to the order confirmation instead.
func (o *Orchestrator) PaymentHandoff(result *model.OrderPlacementResult, buyer Buyer) Handoff {
	if result.PaymentMode == model.PaymentCashOnDelivery && result.GrandTotal == 0 {
		o.nav.NavigateTo(nav.ScreenOrderSuccess, nav.OrderPayload{OrderID: result.OrderID})
		return Handoff{OrderID: result.OrderID}
	}

	token := o.PaymentToken(result, buyer)
	q := url.Values{}
	q.Set("orderId", result.OrderID)
	q.Set("token", token)
	q.Set("paymentMode", string(result.PaymentMode))
	h := Handoff{
		OrderID: result.OrderID,
		Token:   token,
		URL:     fmt.Sprintf("%s/payment?%s", o.cfg.PaymentBaseURL, q.Encode()),
	}
	o.nav.NavigateTo(nav.ScreenPayment, nav.OrderPayload{OrderID: result.OrderID})
	return h
}
