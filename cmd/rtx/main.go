// cmd/rtx/main.go
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"rtx-client/internal/api"
	"rtx-client/internal/app"
	"rtx-client/internal/config"
	"rtx-client/internal/domain/geo"
	"rtx-client/internal/maps"
	"rtx-client/internal/pkg/session"
	"rtx-client/internal/service/auth"
	geosvc "rtx-client/internal/service/geo"
	restaurantsvc "rtx-client/internal/service/restaurant"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const usage = `rtx - cliente da plataforma de reservas

Uso:
  rtx login                 autentica e grava a sessão local
  rtx logout                descarta a sessão local
  rtx whoami                mostra o usuário autenticado
  rtx register              cadastra uma conta de cliente
  rtx register-restaurant   cadastra operador e restaurante
  rtx restaurants           lista restaurantes
  rtx serve                 abre o visualizador de mapa local
`

type cli struct {
	cfg         config.AppConfig
	logger      *zap.Logger
	sessions    *session.Manager
	auth        *auth.AuthService
	restaurants *restaurantsvc.Service
	geocoder    *geosvc.Geocoder
	sync        *maps.Synchronizer
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()
	sessions, err := session.NewManager(cfg.SessionFile)
	if err != nil {
		logger.Fatal("session store unavailable", zap.Error(err))
	}

	client := api.New(cfg.APIBaseURL, cfg.DevToken, sessions, cfg.HTTPTimeout)
	authService := auth.NewAuthService(client, sessions, cfg.DevToken, logger)
	restaurants := restaurantsvc.NewService(client, logger)
	locator := geosvc.NewLocator(cfg.LocateURL, cfg.LocateTimeout, logger)
	geocoder := geosvc.NewGeocoder(cfg.GeocodeURL, cfg.HTTPTimeout, logger)
	sync := maps.NewSynchronizer(restaurants, locator, geocoder,
		geo.Point{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng}, logger)

	c := &cli{
		cfg:         cfg,
		logger:      logger,
		sessions:    sessions,
		auth:        authService,
		restaurants: restaurants,
		geocoder:    geocoder,
		sync:        sync,
	}

	ctx := context.Background()
	if err := c.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}

func (c *cli) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return c.login(ctx, args)
	case "logout":
		c.auth.Logout()
		fmt.Println("sessão encerrada")
		return nil
	case "whoami":
		return c.whoami(ctx)
	case "register":
		return c.register(ctx, args)
	case "register-restaurant":
		return c.registerRestaurant(ctx, args)
	case "restaurants":
		return c.listRestaurants(ctx)
	case "serve":
		return c.serve(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Print(usage)
		return fmt.Errorf("comando desconhecido: %s", command)
	}
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("user", "", "nome de usuário")
	password := fs.String("pass", "", "senha")
	fs.Parse(args)

	if *username == "" {
		*username = prompt("Usuário: ")
	}
	if *password == "" {
		*password = prompt("Senha: ")
	}

	sess, err := c.auth.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	if sess.User != nil {
		fmt.Printf("autenticado como %s (%s)\n", sess.User.Username, sess.User.Role)
	} else {
		fmt.Println("autenticado")
	}
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	sess := c.auth.Bootstrap(ctx)
	if !sess.IsAuthenticated() {
		fmt.Println("não autenticado")
		return nil
	}
	profile, err := c.auth.Me(ctx)
	if err != nil {
		// The saved identity still answers the question offline.
		if sess.User != nil {
			fmt.Printf("%s (%s)\n", sess.User.Username, sess.User.Role)
			return nil
		}
		return err
	}
	fmt.Printf("%s (%s)\n", profile.Username, profile.Role)
	return nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	in := restaurantsvc.RegisterUserInput{}
	fs.StringVar(&in.Username, "user", "", "nome de usuário")
	fs.StringVar(&in.Password, "pass", "", "senha")
	fs.StringVar(&in.Email, "email", "", "e-mail")
	fs.StringVar(&in.Telefone, "telefone", "", "telefone")
	fs.StringVar(&in.CPF, "cpf", "", "CPF")
	fs.Parse(args)

	created, err := c.restaurants.RegisterUser(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("conta criada: %s\n", created.Username)
	return nil
}

func (c *cli) registerRestaurant(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register-restaurant", flag.ExitOnError)
	in := restaurantsvc.RegisterRestaurantInput{}
	fs.StringVar(&in.Username, "user", "", "usuário do operador")
	fs.StringVar(&in.Password, "pass", "", "senha")
	fs.StringVar(&in.Email, "email", "", "e-mail")
	fs.StringVar(&in.Telefone, "telefone", "", "telefone")
	fs.StringVar(&in.CNPJ, "cnpj", "", "CNPJ")
	fs.StringVar(&in.NomeFantasia, "nome", "", "nome fantasia")
	fs.StringVar(&in.RazaoSocial, "razao", "", "razão social")
	fs.StringVar(&in.Categoria, "categoria", "", "categoria")
	fs.Parse(args)

	if err := c.restaurants.RegisterRestaurant(ctx, in); err != nil {
		return err
	}
	fmt.Printf("restaurante cadastrado: %s\n", in.NomeFantasia)
	return nil
}

func (c *cli) listRestaurants(ctx context.Context) error {
	list, advisory, err := c.restaurants.List(ctx)
	if err != nil {
		return err
	}
	if advisory != "" {
		fmt.Println(advisory)
	}
	for _, r := range list {
		line := r.Nome
		if r.Endereco != "" {
			line += " - " + r.Endereco
		}
		if r.MapEligible() {
			line += fmt.Sprintf(" (%.4f, %.4f)", *r.Lat, *r.Lng)
		}
		fmt.Println(line)
	}
	fmt.Printf("%d restaurante(s)\n", len(list))
	return nil
}

func (c *cli) serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", c.cfg.ViewerAddr, "endereço do visualizador")
	fs.Parse(args)
	c.cfg.ViewerAddr = *addr

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Adopt a saved or dev session before the guard starts answering.
	c.auth.Bootstrap(ctx)

	srv := app.NewServer(c.cfg, c.logger, c.auth, c.restaurants, c.sync, c.geocoder)
	fmt.Printf("visualizador em http://%s\n", c.cfg.ViewerAddr)
	return srv.Start(ctx)
}

func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
