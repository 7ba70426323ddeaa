package main

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
)

var currencies = []string{"usd", "eur", "gbp", "chf", "sek"}

// fakeIntent builds a create-intent body the way a sloppy form would send it.
func fakeIntent(f *gofakeit.Faker) map[string]any {
	cents := f.IntRange(100, 250_000)

	var amount any
	switch f.IntRange(0, 3) {
	case 0:
		amount = cents
	case 1:
		amount = fmt.Sprintf("%d", cents)
	case 2:
		amount = fmt.Sprintf("<b>%d</b>", cents)
	default:
		amount = fmt.Sprintf("%d cents", cents)
	}

	orderID := fmt.Sprintf("ORD-%d", f.IntRange(1000, 99999))
	if f.Bool() {
		orderID = "<i>" + orderID + "</i>"
	}

	currency := f.RandomString(currencies)
	if f.Bool() {
		currency = "  " + currency + " "
	}

	body := map[string]any{
		"orderId":     orderID,
		"amountCents": amount,
		"currency":    currency,
	}
	if f.Bool() {
		body["email"] = f.Email()
	}
	return body
}

// fakeResult reports a random confirmation outcome for intentID.
func fakeResult(f *gofakeit.Faker, intentID string) map[string]string {
	status := f.RandomString([]string{"succeeded", "succeeded", "succeeded", "failed", "canceled", "requires_action", "processing"})

	body := map[string]string{
		"paymentIntentId": intentID,
		"status":          status,
	}
	if status == "failed" {
		body["error"] = f.RandomString([]string{
			"Your card was declined.",
			"Your card has insufficient funds.",
			"<script>alert('x')</script>Your card has expired.",
		})
	}
	return body
}
