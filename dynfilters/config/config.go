package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain/operators"
)

const (
	FileName  = "dynamic-filters"
	EnvPrefix = "DYNAMIC_FILTERS"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders a libpq connection URL understood by pgxpool.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.DBName,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

type HTTPConfig struct {
	Addr string
}

type Config struct {
	AllowedOperators      []string
	DefaultRelationColumn string
	// AllowedSortingColumns is empty when every column may be sorted on.
	AllowedSortingColumns []string

	Database DatabaseConfig
	HTTP     HTTPConfig
}

func Default() Config {
	ops := make([]string, len(operators.DefaultOperators))
	for i, op := range operators.DefaultOperators {
		ops[i] = string(op)
	}
	return Config{
		AllowedOperators:      ops,
		DefaultRelationColumn: operators.DefaultRelationKey,
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "postgres",
			SSLMode: "disable",
		},
		HTTP: HTTPConfig{Addr: ":8080"},
	}
}

// Load reads dynamic-filters.yaml from path when present, then applies
// DYNAMIC_FILTERS_* environment variables (DYNAMIC_FILTERS_DATABASE_HOST
// for database.host). Lists given through the environment are comma
// separated.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	keys := []string{
		"allowed_operators",
		"default_relation_column",
		"allowed_sorting_columns",
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"http.addr",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return cfg, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if v.IsSet("allowed_operators") {
		cfg.AllowedOperators = stringList(v.Get("allowed_operators"))
	}
	if v.IsSet("default_relation_column") {
		cfg.DefaultRelationColumn = v.GetString("default_relation_column")
	}
	if v.IsSet("allowed_sorting_columns") {
		cfg.AllowedSortingColumns = stringList(v.Get("allowed_sorting_columns"))
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		port, err := cast.ToIntE(v.Get("database.port"))
		if err != nil {
			return cfg, fmt.Errorf("database.port: %w", err)
		}
		cfg.Database.Port = port
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("http.addr") {
		cfg.HTTP.Addr = v.GetString("http.addr")
	}

	return cfg, nil
}

// Registry builds the operator registry shared by all requests.
func (c Config) Registry() *operators.OperatorRegistry {
	return operators.NewOperatorRegistry(
		operators.WithAllowedOperators(c.AllowedOperators...),
		operators.WithDefaultRelationKey(c.DefaultRelationColumn),
		operators.WithAllowedSortFields(c.AllowedSortingColumns...),
	)
}

func stringList(raw any) []string {
	var items []string
	if s, ok := raw.(string); ok {
		items = strings.Split(s, ",")
	} else {
		items = cast.ToStringSlice(raw)
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
