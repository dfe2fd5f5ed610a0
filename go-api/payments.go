package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

// PaymentLinker produces the checkout URL sent to the client. Confirmation
// comes back out of band through mark-paid.
type PaymentLinker interface {
	PaymentLink(ctx context.Context, sp models.Sprint) (string, error)
}

// staticLinker appends the sprint reference to a fixed payment-link base,
// the way hosted payment links accept client_reference_id.
type staticLinker struct {
	base string
}

func (l staticLinker) PaymentLink(_ context.Context, sp models.Sprint) (string, error) {
	u, err := url.Parse(strings.TrimSpace(l.base))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("payment link base %q is not an absolute url", l.base)
	}
	q := u.Query()
	q.Set("client_reference_id", sp.ID)
	q.Set("tier", string(sp.Tier))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
