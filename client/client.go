// Package client is a typed HTTP client for the token service. Relays and
// payees use it to submit signed authorizations without hand-building the
// wire bodies.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	token "github.com/simpcl/generic-erc20-token"
	"github.com/simpcl/generic-erc20-token/eip712"
)

const (
	headerContentType   = "Content-Type"
	mimeApplicationJSON = "application/json"
)

// Client talks to one token service instance.
type Client struct {
	URL        string
	HTTPClient *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		URL:        baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Signature is the wire form of a 65-byte secp256k1 signature.
type Signature struct {
	V uint8  `json:"v"`
	R string `json:"r"`
	S string `json:"s"`
}

// WireSignature converts a recovered-form signature to its wire shape.
func WireSignature(sig eip712.Signature) Signature {
	return Signature{V: sig.V, R: sig.R.Hex(), S: sig.S.Hex()}
}

// PermitRequest is the body of POST /token/permit.
type PermitRequest struct {
	Owner     string    `json:"owner"`
	Spender   string    `json:"spender"`
	Value     string    `json:"value"`
	Deadline  string    `json:"deadline"`
	Signature Signature `json:"signature"`
}

// PermitResponse reports the owner's nonce after a successful permit.
type PermitResponse struct {
	Owner string `json:"owner"`
	Nonce uint64 `json:"nonce"`
}

// AuthorizationRequest is the body of the transfer-with-authorization and
// receive-with-authorization endpoints. Caller is required only for receive.
type AuthorizationRequest struct {
	Caller      string    `json:"caller,omitempty"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Value       string    `json:"value"`
	ValidAfter  string    `json:"validAfter"`
	ValidBefore string    `json:"validBefore"`
	Nonce       string    `json:"nonce"`
	Signature   Signature `json:"signature"`
}

// AuthorizationResponse reports the executed transfer and the resulting
// authorization state.
type AuthorizationResponse struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
	State uint8  `json:"state"`
}

// CancelRequest is the body of POST /token/cancel-authorization.
type CancelRequest struct {
	Authorizer string    `json:"authorizer"`
	Nonce      string    `json:"nonce"`
	Signature  Signature `json:"signature"`
}

// CancelResponse reports the canceled pair's state.
type CancelResponse struct {
	Authorizer string `json:"authorizer"`
	State      uint8  `json:"state"`
}

// Info is the token deployment's read-only identity.
type Info struct {
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Decimals        uint8  `json:"decimals"`
	Version         string `json:"version"`
	ChainID         string `json:"chainId"`
	Address         string `json:"address"`
	TotalSupply     string `json:"totalSupply"`
	Cap             string `json:"cap,omitempty"`
	DomainSeparator string `json:"domainSeparator"`
}

// Permit submits a signed EIP-2612 permit.
func (c *Client) Permit(req *PermitRequest) (*PermitResponse, error) {
	var resp PermitResponse
	if err := c.post("/token/permit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TransferWithAuthorization submits a signed transfer authorization.
func (c *Client) TransferWithAuthorization(req *AuthorizationRequest) (*AuthorizationResponse, error) {
	var resp AuthorizationResponse
	if err := c.post("/token/transfer-with-authorization", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReceiveWithAuthorization submits a signed receive authorization on behalf
// of the payee named in req.Caller.
func (c *Client) ReceiveWithAuthorization(req *AuthorizationRequest) (*AuthorizationResponse, error) {
	var resp AuthorizationResponse
	if err := c.post("/token/receive-with-authorization", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelAuthorization submits a signed cancellation.
func (c *Client) CancelAuthorization(req *CancelRequest) (*CancelResponse, error) {
	var resp CancelResponse
	if err := c.post("/token/cancel-authorization", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TokenInfo fetches the deployment identity.
func (c *Client) TokenInfo() (*Info, error) {
	var info Info
	if err := c.get("/token/info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Nonce fetches the account's current permit nonce.
func (c *Client) Nonce(account common.Address) (uint64, error) {
	var resp struct {
		Nonce uint64 `json:"nonce"`
	}
	if err := c.get("/token/nonces/"+account.Hex(), &resp); err != nil {
		return 0, err
	}
	return resp.Nonce, nil
}

// AuthorizationState fetches the state of an (authorizer, nonce) pair.
func (c *Client) AuthorizationState(authorizer common.Address, nonce [32]byte) (token.AuthorizationState, error) {
	var resp struct {
		State uint8 `json:"state"`
	}
	path := fmt.Sprintf("/token/authorizations/%s/0x%x", authorizer.Hex(), nonce)
	if err := c.get(path, &resp); err != nil {
		return 0, err
	}
	return token.AuthorizationState(resp.State), nil
}

// Balance fetches the account's balance.
func (c *Client) Balance(account common.Address) (*big.Int, error) {
	var resp struct {
		Balance string `json:"balance"`
	}
	if err := c.get("/token/balances/"+account.Hex(), &resp); err != nil {
		return nil, err
	}
	return parseAmount(resp.Balance)
}

// Allowance fetches allowance(owner -> spender).
func (c *Client) Allowance(owner, spender common.Address) (*big.Int, error) {
	var resp struct {
		Allowance string `json:"allowance"`
	}
	if err := c.get("/token/allowances/"+owner.Hex()+"/"+spender.Hex(), &resp); err != nil {
		return nil, err
	}
	return parseAmount(resp.Allowance)
}

func (c *Client) post(path string, body, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.URL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(headerContentType, mimeApplicationJSON)

	return c.do(req, out)
}

func (c *Client) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.URL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

// do executes the request and decodes either the success body or the
// service's error body. Service errors come back as *token.Error so callers
// can match codes with errors.Is.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var te token.Error
		if err := json.NewDecoder(resp.Body).Decode(&te); err != nil || te.Code == "" {
			return fmt.Errorf("request failed: %s", resp.Status)
		}
		return &te
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", s)
	}
	return v, nil
}
