package zilliqa

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"io"
	"time"
)

const (
	jsonrpcVersion = "2.0"
)

var (
	ErrMissingHost = errors.New("bad call missing argument host")
	ErrNilResponse = errors.New("rpc response is nil, please check your network status")
)

// A rpcClient represents a JSON RPC client (over HTTP(s)).
type rpcClient struct {
	url        string
	httpClient *retryablehttp.Client
	timeout    int
	debug      bool
}

type rpcRequest struct {
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	Id      int64       `json:"id"`
	JsonRpc string      `json:"jsonrpc"`
}

// RPCErrorCode represents an error code to be used as a part of an RPCError
// which is in turn used in a JSON-RPC Response object.
type RPCErrorCode int

// RPCError represents an error that is used as a part of a JSON-RPC Response
// object.
type RPCError struct {
	Code    RPCErrorCode `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
}

var _, _ error = RPCError{}, (*RPCError)(nil)

func (e RPCError) Error() string {
	return fmt.Sprintf("%d:%s", e.Code, e.Message)
}

type rpcResponse struct {
	Id     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (rResp rpcResponse) ResultAsString() string {
	var s string
	if err := json.Unmarshal(rResp.Result, &s); err != nil {
		return string(rResp.Result)
	}
	return s
}

func NewClient(url string, timeout int, debug bool) (*rpcClient, error) {
	if len(url) == 0 {
		return nil, ErrMissingHost
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = 3
	retryClient.HTTPClient.Timeout = time.Duration(timeout) * time.Second

	return &rpcClient{
		url,
		retryClient,
		timeout,
		debug,
	}, nil
}

func (c *rpcClient) call(method string, params ...interface{}) (*rpcResponse, error) {
	if params == nil {
		params = []interface{}{}
	}
	rpcR := rpcRequest{method, params, time.Now().UnixNano(), jsonrpcVersion}

	payload, err := json.Marshal(rpcR)
	if err != nil {
		return nil, err
	}

	zap.L().With(zap.String("request", rpcR.Method), zap.String("params", fmt.Sprintf("%v", params))).Debug("Zilliqa: RPC Request")
	if c.debug {
		zap.L().With(zap.String("request", string(payload))).Debug("Zilliqa: RPC Request")
	}

	req, err := retryablehttp.NewRequest("POST", c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json;charset=utf-8")
	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		zap.L().With(zap.Error(err)).Warn("Zilliqa: RPC Failure")
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if c.debug {
		zap.L().With(zap.String("response", string(data))).Debug("Zilliqa: RPC Response")
	}

	var rr *rpcResponse
	if err := json.Unmarshal(data, &rr); err != nil {
		return nil, err
	}
	if rr == nil {
		return nil, ErrNilResponse
	}
	if rr.Error != nil {
		return nil, rr.Error
	}

	return rr, nil
}
