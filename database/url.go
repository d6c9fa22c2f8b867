package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL joins a base URL with an optional database name and
// forces sslmode=disable when no sslmode is present.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	databaseURL := strings.TrimRight(baseURL, "/")

	if databaseName != "" {
		if base, query, ok := strings.Cut(databaseURL, "?"); ok {
			databaseURL = fmt.Sprintf("%s/%s?%s", base, databaseName, query)
		} else {
			databaseURL = fmt.Sprintf("%s/%s", databaseURL, databaseName)
		}
	}

	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "?"
		if strings.Contains(databaseURL, "?") {
			separator = "&"
		}
		databaseURL += separator + "sslmode=disable"
	}

	return databaseURL
}
