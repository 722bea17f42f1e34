package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cuemby/thorium/pkg/apierror"
)

// Client is a thin wire client for Thorium's HTTP API (§6). It speaks
// the same Authorization grammar the server parses
// (pkg/auth.ParseAuthorization): "Authorization: token <hex>".
type Client struct {
	baseURL   string
	token     string
	tokenFile string
	http      *http.Client
}

// NewClient builds a Client against server, reading a previously
// saved bearer token from tokenFile if one exists. A missing token
// file is not an error: unauthenticated calls (login) still work.
func NewClient(server, tokenFile string) (*Client, error) {
	token := ""
	if data, err := os.ReadFile(tokenFile); err == nil {
		token = strings.TrimSpace(string(data))
	} else if !os.IsNotExist(err) {
		return nil, apierror.Wrapf(err, apierror.KindInternal, "read token file %s", tokenFile)
	}

	return &Client{
		baseURL:   strings.TrimRight(server, "/"),
		token:     token,
		tokenFile: tokenFile,
		http:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SaveToken persists a freshly issued token to the client's token
// file with owner-only permissions, and keeps it for subsequent calls
// in this process.
func (c *Client) SaveToken(token string) error {
	if err := os.WriteFile(c.tokenFile, []byte(token), 0o600); err != nil {
		return apierror.Wrapf(err, apierror.KindInternal, "write token file %s", c.tokenFile)
	}
	c.token = token
	return nil
}

// do issues one request against path, encoding body as JSON if
// non-nil and decoding the response into out if non-nil. A non-2xx
// response is translated into an *apierror.Error whose Kind matches
// the exit-code table thorctl reports.
func (c *Client) do(method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apierror.Wrapf(err, apierror.KindInternal, "encode request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return apierror.Wrapf(err, apierror.KindInternal, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apierror.Wrapf(err, apierror.KindUnavailable, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierror.Wrapf(err, apierror.KindInternal, "read response body")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return apierror.Wrapf(err, apierror.KindInternal, "decode response body")
		}
		return nil
	}

	return errorForStatus(resp.StatusCode, string(data))
}

// errorForStatus maps an HTTP response status to the apierror.Kind
// whose ExitCode matches §6's exit-code table.
func errorForStatus(status int, message string) *apierror.Error {
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	switch status {
	case http.StatusBadRequest:
		return apierror.New(apierror.KindBadRequest, message)
	case http.StatusUnauthorized:
		return apierror.New(apierror.KindAuth, message)
	case http.StatusForbidden:
		return apierror.New(apierror.KindPermission, message)
	case http.StatusNotFound:
		return apierror.New(apierror.KindNotFound, message)
	case http.StatusConflict:
		return apierror.New(apierror.KindConflict, message)
	case http.StatusServiceUnavailable:
		return apierror.New(apierror.KindUnavailable, message)
	default:
		return apierror.New(apierror.KindInternal, message)
	}
}
