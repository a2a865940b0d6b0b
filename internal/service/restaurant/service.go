package restaurant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"rtx-client/internal/api"
	"rtx-client/internal/domain/restaurant"
	xerrors "rtx-client/internal/pkg/errors"

	"go.uber.org/zap"
)

// FallbackAdvisory is surfaced for display when the live list cannot be
// loaded and demo data is substituted.
const FallbackAdvisory = "Não foi possível carregar restaurantes da API. Exibindo dados de exemplo."

// Service loads and registers restaurants through the remote API.
type Service struct {
	client *api.Client
	logger *zap.Logger
}

// NewService creates the restaurant service.
func NewService(client *api.Client, logger *zap.Logger) *Service {
	return &Service{client: client, logger: logger}
}

// List fetches the restaurant list with the session credentials. The body
// may be a bare array or a {content: [...]} page. Fetch and decode problems
// degrade to the demo records plus an advisory string rather than failing;
// the only error ever returned is the context's own cancellation, so a
// superseded fetch can be discarded instead of applying stale demo data.
func (s *Service) List(ctx context.Context) ([]restaurant.Restaurant, string, error) {
	var payload json.RawMessage
	err := s.client.Request(ctx, "/restaurants", api.Options{RequiresAuth: true}, &payload)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		s.logger.Warn("restaurant fetch failed, serving demo data", zap.Error(err))
		return Demo(), FallbackAdvisory, nil
	}

	raws, err := decodeList(payload)
	if err != nil {
		s.logger.Warn("restaurant payload malformed, serving demo data", zap.Error(err))
		return Demo(), FallbackAdvisory, nil
	}
	return restaurant.NormalizeAll(raws), "", nil
}

func decodeList(payload json.RawMessage) ([]restaurant.Raw, error) {
	var list []restaurant.Raw
	if err := json.Unmarshal(payload, &list); err == nil {
		return list, nil
	}
	var page struct {
		Content []restaurant.Raw `json:"content"`
	}
	if err := json.Unmarshal(payload, &page); err == nil && page.Content != nil {
		return page.Content, nil
	}
	return nil, fmt.Errorf("restaurants: payload is neither an array nor a content page")
}

// Demo returns the example records shown when the API is unavailable,
// centered on the default location.
func Demo() []restaurant.Restaurant {
	return []restaurant.Restaurant{
		{
			ID:        "1",
			Nome:      "Boteco do Aldrin",
			Endereco:  "Rua Exemplo, 123 - Joinville/SC",
			Telefone:  "(47) 99999-9999",
			Categoria: "Boteco",
			Email:     "contato@boteco.com.br",
			Lat:       restaurant.Coord(-26.3045),
			Lng:       restaurant.Coord(-48.8487),
		},
		{
			ID:        "2",
			Nome:      "Sushi do Jerry",
			Endereco:  "Av. Central, 500 - Joinville/SC",
			Telefone:  "(47) 98888-8888",
			Categoria: "Japonês",
			Email:     "hello@sushijerry.com",
			Lat:       restaurant.Coord(-26.3005),
			Lng:       restaurant.Coord(-48.8462),
		},
	}
}

// RegisterUserInput is the payload for a customer account.
type RegisterUserInput struct {
	Username string
	Password string
	Email    string
	Telefone string
	CPF      string
}

// RegisterRestaurantInput covers the two-step operator registration: an
// ADMIN account plus the restaurant bound to it.
type RegisterRestaurantInput struct {
	Username     string
	Password     string
	Email        string
	Telefone     string
	CNPJ         string
	NomeFantasia string
	RazaoSocial  string
	Categoria    string
}

// CreatedUser is the subset of the /users response the client needs.
type CreatedUser struct {
	ID       interface{} `json:"id"`
	Username string      `json:"username"`
}

// RegisterUser creates a customer account with role USER. The CPF is
// reduced to digits before sending.
func (s *Service) RegisterUser(ctx context.Context, in RegisterUserInput) (*CreatedUser, error) {
	body := map[string]interface{}{
		"username": in.Username,
		"password": in.Password,
		"email":    in.Email,
		"telefone": in.Telefone,
		"cpf":      Digits(in.CPF),
		"role":     "USER",
	}
	var created CreatedUser
	if err := s.client.Request(ctx, "/users", api.Options{Method: http.MethodPost, Body: body}, &created); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("username", in.Username))
	return &created, nil
}

// RegisterRestaurant creates the operator account and then the restaurant
// record bound to the returned user id. A failure on the first step aborts
// the second.
func (s *Service) RegisterRestaurant(ctx context.Context, in RegisterRestaurantInput) error {
	userBody := map[string]interface{}{
		"username": in.Username,
		"password": in.Password,
		"email":    in.Email,
		"telefone": in.Telefone,
		"role":     "ADMIN",
	}
	var created CreatedUser
	if err := s.client.Request(ctx, "/users", api.Options{Method: http.MethodPost, Body: userBody}, &created); err != nil {
		return xerrors.Wrap(err, "create operator account")
	}

	restaurantBody := map[string]interface{}{
		"userId":       created.ID,
		"cnpj":         Digits(in.CNPJ),
		"nomeFantasia": in.NomeFantasia,
		"razaoSocial":  in.RazaoSocial,
		"email":        in.Email,
		"telefone":     in.Telefone,
		"categoria":    in.Categoria,
	}
	if err := s.client.Request(ctx, "/restaurants/create", api.Options{Method: http.MethodPost, Body: restaurantBody}, nil); err != nil {
		return xerrors.Wrap(err, "create restaurant")
	}

	s.logger.Info("restaurant registered", zap.String("nome_fantasia", in.NomeFantasia))
	return nil
}

// Digits strips formatting from CPF/CNPJ style documents.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
