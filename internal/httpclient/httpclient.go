package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/plugfox/helpdesk-server/internal/config"
	"golang.org/x/net/proxy"
)

const defaultTimeout = 15 * time.Second

// NewHTTPClient returns a client for outgoing requests (captcha verification,
// Telegram). Requests go through the SOCKS5 proxy when one is configured.
func NewHTTPClient(config *config.ProxyConfig) (*http.Client, error) {
	client, err := NewHttpSocks5Client(config)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{}
	}
	client.Timeout = defaultTimeout
	return client, nil
}

// NewHttpSocks5Client returns nil when no proxy is configured.
func NewHttpSocks5Client(config *config.ProxyConfig) (*http.Client, error) {
	if config == nil || config.Address == "" || config.Port == 0 {
		return nil, nil
	}
	addr := net.JoinHostPort(config.Address, strconv.Itoa(config.Port))
	var auth *proxy.Auth
	if config.Username != "" && config.Password != "" {
		auth = &proxy.Auth{User: config.Username, Password: config.Password}
	}
	dialer, err := proxy.SOCKS5("tcp", addr, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("cannot init socks5 proxy client dialer: %w", err)
	}
	httpTransport := &http.Transport{}
	httpClient := &http.Client{Transport: httpTransport}
	if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
		httpTransport.DialContext = contextDialer.DialContext
	} else {
		httpTransport.DialContext = func(_ context.Context, network, address string) (net.Conn, error) {
			return dialer.Dial(network, address)
		}
	}
	return httpClient, nil
}
