package model

import (
	"testing"
)

func TestDisplayTotal(t *testing.T) {
	snap := CartSnapshot{
		Lines: []CartLine{
			{ProductID: "A", UnitPrice: 40000, Quantity: 2},
			{ProductID: "B", UnitPrice: 10000, Quantity: 1},
		},
		RemoteTotal:      85000, // server applied a surcharge the client cannot see
		RemoteTotalFresh: true,
	}

	if got := snap.ComputedTotal(); got != 90000 {
		t.Errorf("ComputedTotal = %d, want 90000", got)
	}
	if got := snap.DisplayTotal(); got != 85000 {
		t.Errorf("fresh DisplayTotal = %d, want remote 85000", got)
	}

	// An optimistic edit marks the remote total stale
	snap.Lines[0].Quantity = 3
	snap.RemoteTotalFresh = false
	if got := snap.DisplayTotal(); got != 130000 {
		t.Errorf("stale DisplayTotal = %d, want computed 130000", got)
	}
}

func TestSnapshotLineLookup(t *testing.T) {
	snap := CartSnapshot{
		Lines: []CartLine{
			{ProductID: "A", Quantity: 2},
			{ProductID: "B", Quantity: 5},
		},
	}

	line, ok := snap.Line("B")
	if !ok || line.Quantity != 5 {
		t.Errorf("Line(B) = %+v, %v", line, ok)
	}
	if _, ok := snap.Line("C"); ok {
		t.Error("Line(C) found nonexistent product")
	}
	if got := snap.ItemCount(); got != 7 {
		t.Errorf("ItemCount = %d, want 7", got)
	}
}

func TestSnapshotCloneDoesNotAlias(t *testing.T) {
	orig := CartSnapshot{
		Lines: []CartLine{{ProductID: "A", Quantity: 1}},
	}

	clone := orig.Clone()
	clone.Lines[0].Quantity = 99

	if orig.Lines[0].Quantity != 1 {
		t.Errorf("clone aliased original: quantity = %d", orig.Lines[0].Quantity)
	}
}

func TestPayable(t *testing.T) {
	cc := CheckoutContext{
		GrandTotal: 100000,
		PaymentSummary: &PaymentSummary{
			FullPayment:    &PaymentPlan{PayableAmount: 95000, DiscountAmount: 5000},
			CashOnDelivery: &CODPlan{PayNow: 10000, PayOnDelivery: 90000},
		},
	}

	if got := cc.Payable(PaymentFull); got != 95000 {
		t.Errorf("full = %d, want 95000", got)
	}
	if got := cc.Payable(PaymentCashOnDelivery); got != 10000 {
		t.Errorf("cod = %d, want 10000", got)
	}

	// No per-plan breakdown: full pays the grand total, COD pays nothing up front
	bare := CheckoutContext{GrandTotal: 100000}
	if got := bare.Payable(PaymentFull); got != 100000 {
		t.Errorf("bare full = %d, want 100000", got)
	}
	if got := bare.Payable(PaymentCashOnDelivery); got != 0 {
		t.Errorf("bare cod = %d, want 0", got)
	}
}
