package issuer

import (
	"context"

	"github.com/lumapay/onboard/core"
	"golang.org/x/sync/errgroup"
)

func (s *Service) Issue(ctx context.Context, email, cardName, nameOnCard string) (*core.Card, error) {
	r, err := s.request(ctx, email)
	if err != nil {
		return nil, err
	}

	var card core.Card
	resp, err := r.
		SetBody(map[string]string{
			"card_name":    cardName,
			"name_on_card": nameOnCard,
		}).
		SetResult(&card).
		Post(s.url("/cards/virtual"))

	if err != nil {
		return nil, &core.APIError{Body: err.Error()}
	}

	if resp.IsError() {
		return nil, apiError(resp)
	}

	return &card, nil
}

func (s *Service) List(ctx context.Context, email string) ([]*core.Card, error) {
	r, err := s.request(ctx, email)
	if err != nil {
		return nil, err
	}

	var cards []*core.Card
	resp, err := r.SetResult(&cards).Get(s.url("/cards"))
	if err != nil {
		return nil, &core.APIError{Body: err.Error()}
	}

	if resp.IsError() {
		return nil, apiError(resp)
	}

	return cards, nil
}

// Details fetches the unmasked number and the cvv in parallel; both
// requests must succeed or nothing is revealed.
func (s *Service) Details(ctx context.Context, email, cardID, actionToken string) (*core.CardDetails, error) {
	if actionToken == "" {
		return nil, &core.APIError{Body: "card details: missing action token"}
	}

	var details core.CardDetails

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := s.request(ctx, email)
		if err != nil {
			return err
		}

		var body struct {
			CardNumber string `json:"card_number"`
		}

		resp, err := r.
			SetBody(map[string]string{"action_token": actionToken}).
			SetResult(&body).
			Post(s.url("/cards/" + cardID + "/details"))

		if err != nil {
			return &core.APIError{Body: err.Error()}
		}

		if resp.IsError() {
			return apiError(resp)
		}

		details.CardNumber = body.CardNumber
		return nil
	})

	g.Go(func() error {
		r, err := s.request(ctx, email)
		if err != nil {
			return err
		}

		var body struct {
			CVV string `json:"cvv"`
		}

		resp, err := r.
			SetBody(map[string]string{"action_token": actionToken}).
			SetResult(&body).
			Post(s.url("/cards/" + cardID + "/cvv"))

		if err != nil {
			return &core.APIError{Body: err.Error()}
		}

		if resp.IsError() {
			return apiError(resp)
		}

		details.CVV = body.CVV
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &details, nil
}
