// internal/app/handlers.go
package app

import (
	"encoding/json"
	"net/http"

	"rtx-client/internal/maps"
	"rtx-client/internal/pkg/response"
	"rtx-client/internal/service/auth"
	restaurantsvc "rtx-client/internal/service/restaurant"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) handleIndex(c *gin.Context) {
	if s.auth.Status() == auth.StatusAuthenticated {
		c.Redirect(http.StatusFound, "/mapa")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func (s *Server) handleLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (s *Server) handleLogin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	sess, err := s.auth.Login(c.Request.Context(), username, password)
	if err != nil {
		s.logger.Warn("login failed", zap.String("username", username), zap.Error(err))
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"Error": "Usuário ou senha inválidos",
		})
		return
	}

	// Restaurant operators land on the registration form; everyone else on
	// the map.
	if sess.User != nil && sess.User.Role == "ADMIN" {
		c.Redirect(http.StatusFound, "/cadastro")
		return
	}
	c.Redirect(http.StatusFound, "/mapa")
}

func (s *Server) handleLogout(c *gin.Context) {
	s.auth.Logout()
	c.Redirect(http.StatusFound, "/login")
}

func (s *Server) handleMapPage(c *gin.Context) {
	center := s.sync.Center()
	c.HTML(http.StatusOK, "mapa.html", gin.H{
		"Lat": center.Lat,
		"Lng": center.Lng,
	})
}

func (s *Server) handleRegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "cadastro.html", gin.H{})
}

func (s *Server) handlePoints(c *gin.Context) {
	c.JSON(http.StatusOK, s.sync.Snapshot())
}

func (s *Server) handleRefresh(c *gin.Context) {
	// A superseded refresh returns the winner's snapshot, which is what the
	// page wants anyway.
	snap, _ := s.sync.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleSearchCity(c *gin.Context) {
	query := c.Query("q")
	p := s.cities.GeocodeCity(c.Request.Context(), query)
	if p == nil {
		response.NotFound(c, "cidade não encontrada")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"center": p,
		"zoom":   maps.RecenterZoom,
	})
}

func (s *Server) handleRecenter(c *gin.Context) {
	center, accepted := s.sync.Recenter()
	c.JSON(http.StatusOK, gin.H{
		"accepted": accepted,
		"center":   center,
		"zoom":     maps.RecenterZoom,
	})
}

func (s *Server) handleRegisterRestaurant(c *gin.Context) {
	var body struct {
		Username     string `json:"username"`
		Password     string `json:"password"`
		Email        string `json:"email"`
		Telefone     string `json:"telefone"`
		CNPJ         string `json:"cnpj"`
		NomeFantasia string `json:"nomeFantasia"`
		RazaoSocial  string `json:"razaoSocial"`
		Categoria    string `json:"categoria"`
	}
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "corpo inválido", err)
		return
	}

	err := s.restaurants.RegisterRestaurant(c.Request.Context(), restaurantsvc.RegisterRestaurantInput{
		Username:     body.Username,
		Password:     body.Password,
		Email:        body.Email,
		Telefone:     body.Telefone,
		CNPJ:         body.CNPJ,
		NomeFantasia: body.NomeFantasia,
		RazaoSocial:  body.RazaoSocial,
		Categoria:    body.Categoria,
	})
	if err != nil {
		s.logger.Error("restaurant registration failed", zap.Error(err))
		response.Error(c, http.StatusBadGateway, "não foi possível cadastrar o restaurante", err)
		return
	}
	response.Success(c, http.StatusCreated, "restaurante cadastrado", nil)
}

func (s *Server) handleWebsocket(c *gin.Context) {
	initial, err := json.Marshal(s.sync.Snapshot())
	if err != nil {
		initial = nil
	}
	if err := s.hub.Serve(c.Writer, c.Request, initial); err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
	}
}
