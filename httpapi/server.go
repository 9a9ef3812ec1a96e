// Package httpapi exposes the token's signature-authorized operations and
// read surface over HTTP. Relays submit signed messages here; the server
// itself holds no keys.
package httpapi

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	token "github.com/simpcl/generic-erc20-token"
	"github.com/simpcl/generic-erc20-token/ledger"
	"github.com/simpcl/generic-erc20-token/metrics"
)

// Server wires the orchestrator, the ledger's read surface and the metrics
// registry behind a gin router.
type Server struct {
	token   *token.Token
	ledger  *ledger.Ledger
	metrics *metrics.Registry
	logger  *log.Logger
}

// NewServer creates the HTTP server facade.
func NewServer(t *token.Token, l *ledger.Ledger, m *metrics.Registry, logger *log.Logger) *Server {
	return &Server{token: t, ledger: l, metrics: m, logger: logger}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestID(), s.observe())

	router.POST("/token/permit", s.handlePermit)
	router.POST("/token/transfer-with-authorization", s.handleTransferWithAuthorization)
	router.POST("/token/receive-with-authorization", s.handleReceiveWithAuthorization)
	router.POST("/token/cancel-authorization", s.handleCancelAuthorization)

	router.GET("/token/info", s.handleInfo)
	router.GET("/token/domain-separator", s.handleDomainSeparator)
	router.GET("/token/nonces/:address", s.handleNonces)
	router.GET("/token/authorizations/:address/:nonce", s.handleAuthorizationState)
	router.GET("/token/balances/:address", s.handleBalance)
	router.GET("/token/allowances/:owner/:spender", s.handleAllowance)

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	return router
}

// Listen returns an http.Server with the fission-style timeouts applied.
func (s *Server) Listen(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// requestID tags every request with a uuid, echoed back in the response
// header and available to handlers for log correlation.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// observe feeds the request duration histogram.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "halted": s.ledger.IsHalted()})
}

func (s *Server) handleInfo(c *gin.Context) {
	info := gin.H{
		"name":            s.ledger.Name(),
		"symbol":          s.ledger.Symbol(),
		"decimals":        s.ledger.Decimals(),
		"version":         s.token.Version(),
		"chainId":         s.token.ChainID().String(),
		"address":         s.token.Address().Hex(),
		"totalSupply":     s.ledger.TotalSupply().String(),
		"domainSeparator": s.token.DomainSeparator().Hex(),
	}
	if cap := s.ledger.Cap(); cap != nil {
		info["cap"] = cap.String()
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleDomainSeparator(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"domainSeparator": s.token.DomainSeparator().Hex()})
}

func (s *Server) handleNonces(c *gin.Context) {
	account, err := parseAddress(c.Param("address"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address": account.Hex(),
		"nonce":   s.token.Nonces(account),
	})
}

func (s *Server) handleAuthorizationState(c *gin.Context) {
	authorizer, err := parseAddress(c.Param("address"))
	if err != nil {
		s.fail(c, err)
		return
	}
	nonce, err := parseBytes32(c.Param("nonce"))
	if err != nil {
		s.fail(c, err)
		return
	}
	state := s.token.AuthorizationState(authorizer, nonce)
	c.JSON(http.StatusOK, gin.H{
		"authorizer": authorizer.Hex(),
		"nonce":      fmt.Sprintf("0x%x", nonce),
		"state":      uint8(state),
		"stateName":  state.String(),
	})
}

func (s *Server) handleBalance(c *gin.Context) {
	account, err := parseAddress(c.Param("address"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address": account.Hex(),
		"balance": s.ledger.BalanceOf(account).String(),
	})
}

func (s *Server) handleAllowance(c *gin.Context) {
	owner, err := parseAddress(c.Param("owner"))
	if err != nil {
		s.fail(c, err)
		return
	}
	spender, err := parseAddress(c.Param("spender"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"owner":     owner.Hex(),
		"spender":   spender.Hex(),
		"allowance": s.ledger.Allowance(owner, spender).String(),
	})
}
