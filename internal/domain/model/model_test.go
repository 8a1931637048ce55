package model

import "testing"

func TestParseOrderStatus(t *testing.T) {
	cases := []struct {
		in   string
		want OrderStatus
	}{
		{"CREATED", OrderStatusCreated},
		{"PAID", OrderStatusPaid},
		{"FAILED", OrderStatusFailed},
		{"", OrderStatusUnknown},
		{"paid", OrderStatusUnknown},
		{"ATTEMPTED", OrderStatusUnknown},
	}

	for _, tc := range cases {
		if got := ParseOrderStatus(tc.in); got != tc.want {
			t.Fatalf("ParseOrderStatus(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestPaymentOrderIsFree(t *testing.T) {
	cases := []struct {
		amount int64
		free   bool
	}{
		{amount: 0, free: true},
		{amount: -5, free: true},
		{amount: 1, free: false},
		{amount: 50000, free: false},
	}
	for _, tc := range cases {
		o := PaymentOrder{AmountMinor: tc.amount}
		if o.IsFree() != tc.free {
			t.Fatalf("amount %d: expected free=%v", tc.amount, tc.free)
		}
	}
}

func TestSessionStateTransitions(t *testing.T) {
	allowed := [][2]SessionState{
		{StateAwaitingPayment, StateVerifying},
		{StateAwaitingPayment, StateAbandoned},
		{StateAwaitingPayment, StateTimedOut},
		{StateVerifying, StateCompleted},
		{StateVerifying, StateUnverified},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	denied := [][2]SessionState{
		{StateAwaitingPayment, StateCompleted},
		{StateVerifying, StateAbandoned},
		{StateCompleted, StateVerifying},
		{StateAbandoned, StateVerifying},
		{StateUnverified, StateCompleted},
		{StateTimedOut, StateVerifying},
	}
	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be denied", pair[0], pair[1])
		}
	}
}

func TestSessionStateNames(t *testing.T) {
	for _, s := range []SessionState{StateAwaitingPayment, StateVerifying, StateCompleted, StateAbandoned, StateUnverified, StateTimedOut} {
		parsed, ok := ParseSessionState(s.String())
		if !ok || parsed != s {
			t.Fatalf("round trip failed for %s", s)
		}
	}
	if _, ok := ParseSessionState("nope"); ok {
		t.Fatal("expected unknown state name to fail")
	}
	if SessionState(42).String() != "UNKNOWN" {
		t.Fatal("expected UNKNOWN for out of range state")
	}
	if StateVerifying.Terminal() || StateAwaitingPayment.Terminal() {
		t.Fatal("non terminal states reported terminal")
	}
	if !StateCompleted.Terminal() || !StateAbandoned.Terminal() {
		t.Fatal("terminal states reported non terminal")
	}
}

func TestPrefillFromMissingFields(t *testing.T) {
	p := PrefillFrom(Buyer{UserID: "u1"})
	if p.Name != "" || p.Email != "" || p.Contact != "" {
		t.Fatalf("expected empty prefill, got %+v", p)
	}
	if !(Buyer{Email: "a@b.c"}).Identified() {
		t.Fatal("email alone should identify buyer")
	}
	if (Buyer{Name: "x"}).Identified() {
		t.Fatal("name alone must not identify buyer")
	}
}
