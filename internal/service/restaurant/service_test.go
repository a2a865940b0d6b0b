package restaurant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"rtx-client/internal/api"
	"rtx-client/internal/pkg/session"

	"go.uber.org/zap"
)

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sessions, err := session.NewManager(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("new session manager: %v", err)
	}
	if err := sessions.Save(session.Session{Token: "tok"}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	return NewService(api.New(srv.URL, "", sessions, time.Second), zap.NewNop())
}

func jsonHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != 0 {
			w.WriteHeader(status)
		}
		w.Write([]byte(body))
	})
}

func TestList_BareArray(t *testing.T) {
	svc := newTestService(t, jsonHandler(0, `[
		{"id":"a","nome":"Boteco","lat":-26.3,"lng":-48.8},
		{"id":"b","nome":"Sem Coordenada"}
	]`))

	list, advisory, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if advisory != "" {
		t.Fatalf("expected no advisory, got %q", advisory)
	}
	if len(list) != 1 || list[0].ID != "a" {
		t.Fatalf("expected only the placeable record, got %+v", list)
	}
}

func TestList_ContentPage(t *testing.T) {
	svc := newTestService(t, jsonHandler(0, `{"content":[
		{"restaurantId":"x","nomeFantasia":"Sushi","coord":{"lat":-26.3,"lng":-48.8}}
	]}`))

	list, _, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "x" || list[0].Nome != "Sushi" {
		t.Fatalf("expected unwrapped content page, got %+v", list)
	}
}

func TestList_HTTPErrorFallsBackToDemo(t *testing.T) {
	svc := newTestService(t, jsonHandler(http.StatusBadGateway, `{"message":"down"}`))

	list, advisory, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list must absorb HTTP failures, got %v", err)
	}
	if advisory != FallbackAdvisory {
		t.Fatalf("expected advisory %q, got %q", FallbackAdvisory, advisory)
	}
	if len(list) != 2 || list[0].Nome != "Boteco do Aldrin" {
		t.Fatalf("expected demo records, got %+v", list)
	}
	if *list[0].Lat != -26.3045 || *list[0].Lng != -48.8487 {
		t.Fatalf("demo record must sit on the default center, got %v/%v", *list[0].Lat, *list[0].Lng)
	}
}

func TestList_MalformedBodyFallsBackToDemo(t *testing.T) {
	svc := newTestService(t, jsonHandler(0, `{"unexpected":"shape"}`))

	list, advisory, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if advisory != FallbackAdvisory || len(list) != 2 {
		t.Fatalf("expected demo fallback for malformed body, got %d records, advisory %q", len(list), advisory)
	}
}

func TestList_CancelledContextDoesNotApplyDemo(t *testing.T) {
	release := make(chan struct{})
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	list, advisory, err := svc.List(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if list != nil || advisory != "" {
		t.Fatal("a cancelled fetch must not substitute demo data")
	}
}

func TestRegisterRestaurant_TwoStep(t *testing.T) {
	var userBody, restaurantBody map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&userBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":42,"username":"dono"}`))
	})
	mux.HandleFunc("/restaurants/create", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&restaurantBody)
		w.WriteHeader(http.StatusCreated)
	})
	svc := newTestService(t, mux)

	err := svc.RegisterRestaurant(context.Background(), RegisterRestaurantInput{
		Username:     "dono",
		Password:     "pw",
		Email:        "dono@example.com",
		Telefone:     "(47) 91234-5678",
		CNPJ:         "12.345.678/0001-90",
		NomeFantasia: "Boteco do Aldrin",
		RazaoSocial:  "Aldrin Bares LTDA",
		Categoria:    "Boteco",
	})
	if err != nil {
		t.Fatalf("register restaurant: %v", err)
	}

	if userBody["role"] != "ADMIN" {
		t.Fatalf("expected ADMIN role for operator account, got %v", userBody["role"])
	}
	if restaurantBody["userId"] != float64(42) {
		t.Fatalf("expected restaurant bound to created user id, got %v", restaurantBody["userId"])
	}
	if restaurantBody["cnpj"] != "12345678000190" {
		t.Fatalf("expected digit-only CNPJ, got %v", restaurantBody["cnpj"])
	}
}

func TestRegisterRestaurant_FirstStepFailureAborts(t *testing.T) {
	restaurantCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"username taken"}`))
	})
	mux.HandleFunc("/restaurants/create", func(w http.ResponseWriter, r *http.Request) {
		restaurantCalls++
	})
	svc := newTestService(t, mux)

	err := svc.RegisterRestaurant(context.Background(), RegisterRestaurantInput{Username: "dono"})
	if err == nil {
		t.Fatal("expected failure from the account step")
	}
	if restaurantCalls != 0 {
		t.Fatal("restaurant creation must not run after a failed account step")
	}
}

func TestRegisterUser_CPFDigits(t *testing.T) {
	var body map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u1","username":"alice"}`))
	})
	svc := newTestService(t, mux)

	created, err := svc.RegisterUser(context.Background(), RegisterUserInput{
		Username: "alice",
		Password: "pw",
		CPF:      "123.456.789-09",
	})
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	if body["cpf"] != "12345678909" {
		t.Fatalf("expected digit-only CPF, got %v", body["cpf"])
	}
	if body["role"] != "USER" {
		t.Fatalf("expected USER role, got %v", body["role"])
	}
	if created.Username != "alice" {
		t.Fatalf("unexpected created user: %+v", created)
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("12.345.678/0001-90"); got != "12345678000190" {
		t.Fatalf("unexpected digits: %q", got)
	}
	if got := Digits(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
