package database

import (
	"net/url"
	"strings"
)

// ConstructDatabaseURL joins a base server URL with a database name, keeping
// any existing query parameters in place and defaulting sslmode=disable when
// the URL does not set one.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return baseURL
	}

	u.Path = "/" + databaseName

	query := u.Query()
	if query.Get("sslmode") == "" {
		query.Set("sslmode", "disable")
	}
	u.RawQuery = query.Encode()

	return u.String()
}
