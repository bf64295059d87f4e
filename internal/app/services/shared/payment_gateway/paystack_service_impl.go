package payment_gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"schoolpay-service/internal/app/config"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/app/models"
	"schoolpay-service/internal/pkg/constvars"
	"schoolpay-service/internal/pkg/exceptions"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

type paystackService struct {
	BaseUrl string
	client  *http.Client
}

// NewPaystackService builds the gateway client. The bounded timeout is
// the only retry-adjacent policy it carries; retries belong to callers.
func NewPaystackService(internalConfig *config.InternalConfig) contracts.PaymentGatewayService {
	timeout := time.Duration(internalConfig.PaymentGateway.TimeoutInSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &paystackService{
		BaseUrl: strings.TrimRight(internalConfig.PaymentGateway.BaseUrl, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type initializeRequestBody struct {
	Email     string                 `json:"email"`
	Amount    int64                  `json:"amount"`
	Reference string                 `json:"reference"`
	Currency  string                 `json:"currency,omitempty"`
	SplitCode string                 `json:"split_code,omitempty"`
	Metadata  models.PaymentMetadata `json:"metadata"`
}

type gatewayEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeResponseData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyResponseData struct {
	ID              int64           `json:"id"`
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	Channel         string          `json:"channel"`
	GatewayResponse string          `json:"gateway_response"`
	Metadata        json.RawMessage `json:"metadata"`
	Authorization   struct {
		AuthorizationCode string `json:"authorization_code"`
		CardType          string `json:"card_type"`
		Last4             string `json:"last4"`
		Bank              string `json:"bank"`
		Channel           string `json:"channel"`
	} `json:"authorization"`
}

func (s *paystackService) Initialize(ctx context.Context, secretKey string, input *contracts.GatewayInitializeInput) (*contracts.GatewayInitializeOutput, error) {
	body, err := json.Marshal(initializeRequestBody{
		Email:     input.Email,
		Amount:    input.AmountMinor,
		Reference: input.Reference,
		Currency:  input.Currency,
		SplitCode: input.SplitCode,
		Metadata:  input.Metadata,
	})
	if err != nil {
		return nil, exceptions.ErrCannotMarshalJSON(err)
	}

	envelope, err := s.do(ctx, secretKey, constvars.MethodPost, constvars.PaystackInitializePath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var data initializeResponseData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, exceptions.ErrGatewayMalformedResponse(err)
	}
	if data.AuthorizationURL == "" || data.Reference == "" {
		return nil, exceptions.ErrGatewayMalformedResponse(nil)
	}

	return &contracts.GatewayInitializeOutput{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

func (s *paystackService) Verify(ctx context.Context, secretKey, reference string) (*contracts.GatewayVerifyOutput, error) {
	envelope, err := s.do(ctx, secretKey, constvars.MethodGet, constvars.PaystackVerifyPath+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}

	var data verifyResponseData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, exceptions.ErrGatewayMalformedResponse(err)
	}
	if data.Status == "" {
		return nil, exceptions.ErrGatewayMalformedResponse(nil)
	}

	// The gateway sends metadata back as an object, an escaped JSON
	// string, or an empty string depending on how the charge was made.
	var metadata models.PaymentMetadata
	if len(data.Metadata) > 0 {
		if err := json.Unmarshal(data.Metadata, &metadata); err != nil {
			var nested string
			if json.Unmarshal(data.Metadata, &nested) == nil && nested != "" {
				_ = json.Unmarshal([]byte(nested), &metadata)
			}
		}
	}

	return &contracts.GatewayVerifyOutput{
		Status:      constvars.PaystackTransactionStatus(data.Status),
		AmountMinor: data.Amount,
		Currency:    data.Currency,
		Channel:     data.Channel,
		Authorization: models.Authorization{
			Channel:           data.Channel,
			CardType:          data.Authorization.CardType,
			Last4:             data.Authorization.Last4,
			Bank:              data.Authorization.Bank,
			AuthorizationCode: data.Authorization.AuthorizationCode,
		},
		Metadata:         metadata,
		GatewayReference: strconv.FormatInt(data.ID, 10),
		GatewayResponse:  data.GatewayResponse,
	}, nil
}

func (s *paystackService) do(ctx context.Context, secretKey, method, path string, body io.Reader) (*gatewayEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.BaseUrl+path, body)
	if err != nil {
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderAuthorization, "Bearer "+secretKey)
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationJSON)

	resp, err := s.client.Do(req)
	if err != nil {
		if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
			return nil, exceptions.ErrGatewayTimeout(err)
		}
		return nil, exceptions.ErrGatewayRequest(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exceptions.ErrGatewayMalformedResponse(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, exceptions.ErrGatewayNon2xx(nil, resp.StatusCode)
	}

	var envelope gatewayEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, exceptions.ErrGatewayMalformedResponse(err)
	}
	if !envelope.Status {
		return nil, exceptions.ErrGatewayMalformedResponse(nil)
	}
	return &envelope, nil
}
