// Package config loads the postsview settings from flags, POSTSVIEW_ environment
// variables and an optional yaml file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chongma/gql-subscriptions-client/pkg/subscription/websocket"
	"github.com/chongma/gql-subscriptions-client/pkg/transport"
)

const (
	EnvPrefix         = "POSTSVIEW"
	DefaultConfigFile = ".postsview.yaml"
)

const (
	KeyHTTPURL        = "http_url"
	KeyWSURL          = "ws_url"
	KeyWSProtocol     = "ws_protocol"
	KeyAuthHeader     = "auth_header"
	KeyAuthToken      = "auth_token"
	KeyListen         = "listen"
	KeyLogLevel       = "log_level"
	KeyKeepAlive      = "keep_alive"
	KeyRequestTimeout = "request_timeout"
	KeyHTTPRetries    = "http_retries"
)

var ErrMissingEndpoint = errors.New("missing endpoint")

type Config struct {
	HTTPURL        string        `mapstructure:"http_url"`
	WSURL          string        `mapstructure:"ws_url"`
	WSProtocol     string        `mapstructure:"ws_protocol"`
	AuthHeader     string        `mapstructure:"auth_header"`
	AuthToken      string        `mapstructure:"auth_token"`
	Listen         string        `mapstructure:"listen"`
	LogLevel       string        `mapstructure:"log_level"`
	KeepAlive      time.Duration `mapstructure:"keep_alive"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	HTTPRetries    int           `mapstructure:"http_retries"`

	// GeneratedToken is set when AuthToken was not configured and a demo token was made up.
	GeneratedToken bool
}

// Credentials is the token presented on both channels.
func (c Config) Credentials() transport.Credentials {
	return transport.Credentials{Header: c.AuthHeader, Token: c.AuthToken}
}

func (c Config) Protocol() (websocket.Protocol, error) {
	return websocket.ParseProtocol(c.WSProtocol)
}

type flag struct {
	key   string
	name  string
	usage string
}

var flags = []flag{
	{KeyHTTPURL, "http-url", "GraphQL endpoint for queries and mutations"},
	{KeyWSURL, "ws-url", "GraphQL endpoint for subscriptions"},
	{KeyWSProtocol, "ws-protocol", "websocket sub-protocol (graphql-transport-ws|graphql-ws)"},
	{KeyAuthHeader, "auth-header", "header that carries the bearer token"},
	{KeyAuthToken, "auth-token", "bearer token, a demo token is generated when empty"},
	{KeyListen, "listen", "address the page is served on"},
	{KeyLogLevel, "log-level", "debug|info|warn|error"},
	{KeyKeepAlive, "keep-alive", "interval of client pings, 0 disables them"},
	{KeyRequestTimeout, "request-timeout", "timeout of a single HTTP request"},
	{KeyHTTPRetries, "http-retries", "retries of a failed HTTP request"},
}

// New returns a viper instance with defaults and environment lookup configured.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyHTTPURL, "http://localhost:4000/graphql")
	v.SetDefault(KeyWSURL, "ws://localhost:4000/subscriptions")
	v.SetDefault(KeyWSProtocol, string(websocket.DefaultProtocol))
	v.SetDefault(KeyAuthHeader, transport.DefaultAuthHeader)
	v.SetDefault(KeyAuthToken, "")
	v.SetDefault(KeyListen, ":8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyKeepAlive, time.Duration(0))
	v.SetDefault(KeyRequestTimeout, 10*time.Second)
	v.SetDefault(KeyHTTPRetries, 2)

	return v
}

// BindFlags defines one flag per key on fs and binds it to v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, f := range flags {
		if fs.Lookup(f.name) == nil {
			switch value := v.Get(f.key).(type) {
			case time.Duration:
				fs.Duration(f.name, value, f.usage)
			case int:
				fs.Int(f.name, value, f.usage)
			default:
				fs.String(f.name, v.GetString(f.key), f.usage)
			}
		}
		if err := v.BindPFlag(f.key, fs.Lookup(f.name)); err != nil {
			return err
		}
	}
	return nil
}

// Load reads configFile, or $HOME/.postsview.yaml when configFile is empty and
// that file exists, and returns the merged settings.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile == "" {
		configFile = defaultConfigFile()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading %s: %w", configFile, err)
		}
	}

	config := Config{}
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, err
	}

	if config.HTTPURL == "" {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingEndpoint, KeyHTTPURL)
	}
	if config.WSURL == "" {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingEndpoint, KeyWSURL)
	}
	if _, err := config.Protocol(); err != nil {
		return Config{}, err
	}

	if config.AuthToken == "" {
		config.AuthToken = ulid.Make().String()
		config.GeneratedToken = true
	}

	return config, nil
}

func defaultConfigFile() string {
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}

	path := filepath.Join(home, DefaultConfigFile)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
