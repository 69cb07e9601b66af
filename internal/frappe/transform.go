package frappe

import (
	"strconv"

	"shopfront/internal/model"
)

// CartToSnapshot converts a get_cart payload to the domain snapshot.
// The server total is marked fresh: it is canonical until the next
// optimistic edit.
func CartToSnapshot(data *CartData) model.CartSnapshot {
	snap := model.CartSnapshot{
		Lines:            make([]model.CartLine, 0, len(data.Items)),
		RemoteTotal:      model.PaiseFromRupees(data.TotalAmount),
		RemoteTotalFresh: true,
	}
	for _, it := range data.Items {
		if it.Quantity <= 0 {
			continue
		}
		snap.Lines = append(snap.Lines, cartItemToLine(it))
	}
	return snap
}

func cartItemToLine(it CartItem) model.CartLine {
	list := it.MRP
	if list == 0 {
		list = it.Rate
	}
	return model.CartLine{
		ProductID:   it.Item,
		DisplayName: it.ItemName,
		UnitPrice:   model.PaiseFromRupees(it.Rate),
		ListPrice:   model.PaiseFromRupees(list),
		Quantity:    it.Quantity,
		ImageRef:    it.Image,
		Source:      model.SourceRemote,
	}
}

// ProceedToContext converts a proceed payload to the domain checkout
// context. Line items fall back to a local sum when the server omits the
// grand total.
func ProceedToContext(data *ProceedData, coupon string) *model.CheckoutContext {
	ctx := &model.CheckoutContext{
		Items:          make([]model.CartLine, 0, len(data.Items)),
		GrandTotal:     model.PaiseFromRupees(data.GrandTotal),
		DiscountAmount: model.PaiseFromRupees(data.DiscountAmount),
		CouponCode:     coupon,
	}
	for _, it := range data.Items {
		ctx.Items = append(ctx.Items, cartItemToLine(it))
	}
	if ctx.GrandTotal == 0 {
		for _, l := range ctx.Items {
			ctx.GrandTotal += l.Amount()
		}
	}
	if data.PaymentSummary != nil {
		ctx.PaymentSummary = &model.PaymentSummary{}
		if fp := data.PaymentSummary.FullPayment; fp != nil {
			ctx.PaymentSummary.FullPayment = &model.PaymentPlan{
				PayableAmount:  model.PaiseFromRupees(fp.PayableAmount),
				DiscountAmount: model.PaiseFromRupees(fp.DiscountAmount),
			}
		}
		if cod := data.PaymentSummary.CashOnDelivery; cod != nil {
			ctx.PaymentSummary.CashOnDelivery = &model.CODPlan{
				PayNow:         model.PaiseFromRupees(cod.PayNow),
				PayOnDelivery:  model.PaiseFromRupees(cod.PayOnDelivery),
				DiscountAmount: model.PaiseFromRupees(cod.DiscountAmount),
			}
		}
	}
	return ctx
}

// DetailsToModel converts a checkout_details payload.
func DetailsToModel(data *CheckoutDetailsData) model.CheckoutDetails {
	return model.CheckoutDetails{
		CustomerName:           data.CustomerName,
		BillingAddressDisplay:  data.BillingAddressDisplay,
		ShippingAddressDisplay: data.ShippingAddressDisplay,
		CustomerGSTIN:          data.CustomerGSTIN,
		CompanyGSTIN:           data.CompanyGSTIN,
		PlaceOfSupply:          data.PlaceOfSupply,
	}
}

// LinesToOrderItems converts cart lines to the item list proceed and
// place_order expect. Quantity goes over the wire as a string on these
// endpoints.
func LinesToOrderItems(lines []model.CartLine) []OrderItem {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{
			Item:     l.ProductID,
			Quantity: strconv.Itoa(l.Quantity),
		})
	}
	return items
}

// paymentTypeWire maps the domain payment mode to the backend's labels.
func paymentTypeWire(mode model.PaymentMode) string {
	if mode == model.PaymentCashOnDelivery {
		return "Cash On Delivery"
	}
	return "Full Payment"
}
