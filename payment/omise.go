package payment

import (
	"context"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"github.com/pkg/errors"
)

// Omise creates a payment source; its id is handed to the client in place of
// a client secret.
type Omise struct {
	client     *omise.Client
	sourceType string
}

func NewOmise(publicKey, secretKey, sourceType string) (*Omise, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, errors.Wrap(err, "omise client")
	}
	c.SetDebug(false)
	if sourceType == "" {
		sourceType = "promptpay"
	}
	return &Omise{client: c, sourceType: sourceType}, nil
}

func (o *Omise) Name() string { return "omise" }

func (o *Omise) CreateIntent(_ context.Context, amountCents int64, currency string) (string, error) {
	src := &omise.Source{}
	err := o.client.Do(src, &operations.CreateSource{
		Type:     o.sourceType,
		Amount:   amountCents,
		Currency: currency,
	})
	if err != nil {
		return "", errors.Wrap(err, "omise source")
	}
	return src.ID, nil
}
