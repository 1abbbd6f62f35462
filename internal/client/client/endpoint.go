package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/securebank/internal/client/models"
)

// Endpoint is the typed contract of one API route.
type Endpoint[Req, Resp any] struct {
	Method string
	// Path builds the route relative to the API base URL.
	Path func(Req) string
	// Query, when set, encodes Req as query parameters.
	Query func(Req) url.Values
	// Body sends Req as the JSON body.
	Body bool
}

// Call runs req through d and returns the decoded response.
func Call[Req, Resp any](ctx context.Context, d Doer, ep Endpoint[Req, Resp], req Req) (Resp, error) {
	var resp Resp

	r := Request{Method: ep.Method, Path: ep.Path(req)}
	if ep.Query != nil {
		r.Query = ep.Query(req)
	}
	if ep.Body {
		r.Body = req
	}

	if err := d.Do(ctx, r, &resp); err != nil {
		var zero Resp
		return zero, err
	}
	return resp, nil
}

// NoParams is the request type of routes without input.
type NoParams struct{}

func fixed[Req any](p string) func(Req) string {
	return func(Req) string { return p }
}

func byID(prefix string) func(int64) string {
	return func(id int64) string { return prefix + strconv.FormatInt(id, 10) }
}

var (
	PublicKeyEndpoint = Endpoint[NoParams, models.PublicKeyResponse]{
		Method: http.MethodGet,
		Path:   fixed[NoParams]("/security/public-key"),
	}

	LoginEndpoint = Endpoint[models.LoginRequest, models.AuthResponse]{
		Method: http.MethodPost,
		Path:   fixed[models.LoginRequest]("/auth/login"),
		Body:   true,
	}

	RegisterEndpoint = Endpoint[models.RegisterRequest, models.AuthResponse]{
		Method: http.MethodPost,
		Path:   fixed[models.RegisterRequest]("/auth/register"),
		Body:   true,
	}

	MeEndpoint = Endpoint[NoParams, models.User]{
		Method: http.MethodGet,
		Path:   fixed[NoParams]("/auth/me"),
	}

	AccountsEndpoint = Endpoint[int64, []models.Account]{
		Method: http.MethodGet,
		Path:   byID("/bank/accounts/"),
	}

	BalanceEndpoint = Endpoint[int64, float64]{
		Method: http.MethodGet,
		Path:   byID("/bank/balance/"),
	}

	TransactionsEndpoint = Endpoint[int64, []models.Transaction]{
		Method: http.MethodGet,
		Path:   byID("/bank/transactions/"),
	}

	TransferEndpoint = Endpoint[models.TransferRequest, string]{
		Method: http.MethodPost,
		Path:   fixed[models.TransferRequest]("/bank/transfer"),
		Query: func(r models.TransferRequest) url.Values {
			return url.Values{
				"senderId":   {strconv.FormatInt(r.SenderAccountID, 10)},
				"receiverId": {strconv.FormatInt(r.ReceiverAccountID, 10)},
				"amount":     {strconv.FormatFloat(r.Amount, 'f', -1, 64)},
			}
		},
	}
)
