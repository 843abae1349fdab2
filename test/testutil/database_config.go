package testutil

import (
	"net/url"
	"os"
)

// DatabaseConfig points integration tests at an existing PostgreSQL server.
type DatabaseConfig struct {
	URL string
}

// GetDatabaseConfig reads the test database from the environment.
//
// PLANFILTER_TEST_DATABASE_URL takes precedence. Otherwise
// PLANFILTER_TEST_DATABASE_HOST with optional _PORT, _USER, _PASSWORD, _NAME
// and _SSLMODE builds one. With neither set the config is empty and tests
// start a container.
func GetDatabaseConfig() DatabaseConfig {
	if u := os.Getenv("PLANFILTER_TEST_DATABASE_URL"); u != "" {
		return DatabaseConfig{URL: u}
	}

	host := os.Getenv("PLANFILTER_TEST_DATABASE_HOST")
	if host == "" {
		return DatabaseConfig{}
	}
	return DatabaseConfig{URL: buildDatabaseURL(
		getEnv("PLANFILTER_TEST_DATABASE_USER", "postgres"),
		os.Getenv("PLANFILTER_TEST_DATABASE_PASSWORD"),
		host,
		getEnv("PLANFILTER_TEST_DATABASE_PORT", "5432"),
		getEnv("PLANFILTER_TEST_DATABASE_NAME", "postgres"),
		getEnv("PLANFILTER_TEST_DATABASE_SSLMODE", "disable"),
	)}
}

// buildDatabaseURL constructs a PostgreSQL connection URL.
func buildDatabaseURL(user, password, host, port, dbname, sslmode string) string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     host + ":" + port,
		Path:     "/" + dbname,
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}
	if password != "" {
		u.User = url.UserPassword(user, password)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
