package httpapi

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	token "github.com/simpcl/generic-erc20-token"
	"github.com/simpcl/generic-erc20-token/eip712"
)

// Wire shapes. Addresses are 0x-hex, amounts and timestamps are decimal
// strings (256-bit values do not survive JSON numbers), the authorization
// nonce is 0x-hex bytes32, and v rides as a number.

type signatureBody struct {
	V uint8  `json:"v"`
	R string `json:"r"`
	S string `json:"s"`
}

type permitBody struct {
	Owner     string        `json:"owner"`
	Spender   string        `json:"spender"`
	Value     string        `json:"value"`
	Deadline  string        `json:"deadline"`
	Signature signatureBody `json:"signature"`
}

type authorizationBody struct {
	Caller      string        `json:"caller,omitempty"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	Value       string        `json:"value"`
	ValidAfter  string        `json:"validAfter"`
	ValidBefore string        `json:"validBefore"`
	Nonce       string        `json:"nonce"`
	Signature   signatureBody `json:"signature"`
}

type cancelBody struct {
	Authorizer string        `json:"authorizer"`
	Nonce      string        `json:"nonce"`
	Signature  signatureBody `json:"signature"`
}

func (s *Server) handlePermit(c *gin.Context) {
	var body permitBody
	if !s.decode(c, permitSchema, &body) {
		return
	}

	owner, err := s.permit(body)
	s.metrics.ObserveOperation("permit", err)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"owner": owner.Hex(),
		"nonce": s.token.Nonces(owner),
	})
}

func (s *Server) permit(body permitBody) (common.Address, error) {
	owner, err := parseAddress(body.Owner)
	if err != nil {
		return owner, err
	}
	spender, err := parseAddress(body.Spender)
	if err != nil {
		return owner, err
	}
	value, err := parseAmount(body.Value)
	if err != nil {
		return owner, err
	}
	deadline, err := parseAmount(body.Deadline)
	if err != nil {
		return owner, err
	}
	sig, err := parseSignature(body.Signature)
	if err != nil {
		return owner, err
	}
	return owner, s.token.Permit(owner, spender, value, deadline, sig)
}

func (s *Server) handleTransferWithAuthorization(c *gin.Context) {
	s.handleAuthorized(c, "transferWithAuthorization", false)
}

func (s *Server) handleReceiveWithAuthorization(c *gin.Context) {
	s.handleAuthorized(c, "receiveWithAuthorization", true)
}

func (s *Server) handleAuthorized(c *gin.Context, operation string, receive bool) {
	schema := transferAuthorizationSchema
	if receive {
		schema = receiveAuthorizationSchema
	}
	var body authorizationBody
	if !s.decode(c, schema, &body) {
		return
	}

	req, err := parseAuthorization(body)
	if err == nil {
		if receive {
			var caller common.Address
			caller, err = parseAddress(body.Caller)
			if err == nil {
				err = s.token.ReceiveWithAuthorization(caller, req.from, req.to, req.value, req.validAfter, req.validBefore, req.nonce, req.sig)
			}
		} else {
			err = s.token.TransferWithAuthorization(req.from, req.to, req.value, req.validAfter, req.validBefore, req.nonce, req.sig)
		}
	}

	s.metrics.ObserveOperation(operation, err)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"from":  req.from.Hex(),
		"to":    req.to.Hex(),
		"value": req.value.String(),
		"state": uint8(s.token.AuthorizationState(req.from, req.nonce)),
	})
}

func (s *Server) handleCancelAuthorization(c *gin.Context) {
	var body cancelBody
	if !s.decode(c, cancelAuthorizationSchema, &body) {
		return
	}

	authorizer, nonce, err := s.cancel(body)
	s.metrics.ObserveOperation("cancelAuthorization", err)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authorizer": authorizer.Hex(),
		"state":      uint8(s.token.AuthorizationState(authorizer, nonce)),
	})
}

func (s *Server) cancel(body cancelBody) (common.Address, [32]byte, error) {
	var nonce [32]byte
	authorizer, err := parseAddress(body.Authorizer)
	if err != nil {
		return authorizer, nonce, err
	}
	if nonce, err = parseBytes32(body.Nonce); err != nil {
		return authorizer, nonce, err
	}
	sig, err := parseSignature(body.Signature)
	if err != nil {
		return authorizer, nonce, err
	}
	return authorizer, nonce, s.token.CancelAuthorization(authorizer, nonce, sig)
}

// decode validates the raw body against its JSON schema, then unmarshals.
// Responds with 400 and the schema violations when validation fails.
func (s *Server) decode(c *gin.Context, schema string, out interface{}) bool {
	raw, err := c.GetRawData()
	if err != nil {
		s.fail(c, errBadRequest("unreadable request body"))
		return false
	}
	if violations, err := validateSchema(schema, raw); err != nil {
		s.fail(c, errBadRequest(err.Error()))
		return false
	} else if len(violations) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":       "invalid_request",
			"message":    "request body failed validation",
			"violations": violations,
		})
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.fail(c, errBadRequest("malformed JSON body"))
		return false
	}
	return true
}

type authorizedRequest struct {
	from, to                       common.Address
	value, validAfter, validBefore *big.Int
	nonce                          [32]byte
	sig                            eip712.Signature
}

func parseAuthorization(body authorizationBody) (authorizedRequest, error) {
	var req authorizedRequest
	var err error
	if req.from, err = parseAddress(body.From); err != nil {
		return req, err
	}
	if req.to, err = parseAddress(body.To); err != nil {
		return req, err
	}
	if req.value, err = parseAmount(body.Value); err != nil {
		return req, err
	}
	if req.validAfter, err = parseAmount(body.ValidAfter); err != nil {
		return req, err
	}
	if req.validBefore, err = parseAmount(body.ValidBefore); err != nil {
		return req, err
	}
	if req.nonce, err = parseBytes32(body.Nonce); err != nil {
		return req, err
	}
	req.sig, err = parseSignature(body.Signature)
	return req, err
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errBadRequest("invalid address: " + s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || v.BitLen() > 256 {
		return nil, errBadRequest("invalid uint256 value: " + s)
	}
	return v, nil
}

func parseBytes32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hexutil.Decode(ensureHexPrefix(s))
	if err != nil || len(b) != 32 {
		return out, errBadRequest("invalid bytes32 value: " + s)
	}
	copy(out[:], b)
	return out, nil
}

func parseSignature(body signatureBody) (eip712.Signature, error) {
	r, err := parseBytes32(body.R)
	if err != nil {
		return eip712.Signature{}, errBadRequest("invalid signature r")
	}
	sv, err := parseBytes32(body.S)
	if err != nil {
		return eip712.Signature{}, errBadRequest("invalid signature s")
	}
	return eip712.Signature{
		V: body.V,
		R: common.BytesToHash(r[:]),
		S: common.BytesToHash(sv[:]),
	}, nil
}

func ensureHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s
	}
	return "0x" + s
}

func errBadRequest(message string) *token.Error {
	return &token.Error{Code: "invalid_request", Message: message}
}

// fail maps a token error code to its HTTP status and writes the error
// body. Unknown errors surface as 500 without leaking internals.
func (s *Server) fail(c *gin.Context, err error) {
	var te *token.Error
	if !errors.As(err, &te) {
		s.logger.Printf("request %v: internal error: %v", c.GetString("request_id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "message": "internal error"})
		return
	}
	c.JSON(statusForCode(te.Code), te)
}

func statusForCode(code string) int {
	switch code {
	case token.ErrCodeInvalidSignature:
		return http.StatusUnauthorized
	case token.ErrCodePartyRejected, token.ErrCodeCallerNotRecipient,
		token.ErrCodeNotOwner, token.ErrCodeNotMinter:
		return http.StatusForbidden
	case token.ErrCodeAuthorizationConsumed, token.ErrCodeNonceMismatch:
		return http.StatusConflict
	case token.ErrCodeExpired, token.ErrCodeNotYetValid:
		return http.StatusGone
	case token.ErrCodeSystemHalted:
		return http.StatusServiceUnavailable
	case token.ErrCodeInsufficientBalance, token.ErrCodeInsufficientAllowance,
		token.ErrCodeCapExceeded:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
