// Package postgis loads polygons from a PostGIS query.
package postgis

import (
	"database/sql"
	"fmt"
	"strings"

	pq "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/omniscale/geosprep/logging"
)

var log = logging.NewLogger("PostGIS")

type SQLError struct {
	query         string
	originalError error
}

func (e *SQLError) Error() string {
	return fmt.Sprintf("SQL Error: %s in query %s", e.originalError.Error(), e.query)
}

func (e *SQLError) Unwrap() error {
	return e.originalError
}

// Open connects to the database of the connection URL. postgis:// URLs are
// accepted as well as postgres:// URLs.
func Open(connection string) (*sql.DB, error) {
	params, err := connectionParams(connection)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", params)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	// check that the connection actually works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "connecting to database")
	}
	return db, nil
}

// LoadWkb runs query and returns the WKB of all rows. The query needs to
// return the geometry as the first column, e.g. ST_AsBinary(geometry).
// NULL geometries are skipped.
func LoadWkb(db *sql.DB, query string) ([][]byte, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, &SQLError{query, err}
	}
	defer rows.Close()

	var result [][]byte
	for rows.Next() {
		var wkb []byte
		if err := rows.Scan(&wkb); err != nil {
			return nil, &SQLError{query, err}
		}
		if wkb == nil {
			continue
		}
		result = append(result, wkb)
	}
	if err := rows.Err(); err != nil {
		return nil, &SQLError{query, err}
	}
	log.Printf("loaded %d geometries", len(result))
	return result, nil
}

// Load connects to the database and returns the WKB of all rows of query.
func Load(connection, query string) ([][]byte, error) {
	db, err := Open(connection)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return LoadWkb(db, query)
}

func connectionParams(connection string) (string, error) {
	if strings.HasPrefix(connection, "postgis://") {
		connection = strings.Replace(
			connection,
			"postgis", "postgres", 1,
		)
	}
	if strings.HasPrefix(connection, "postgres://") || strings.HasPrefix(connection, "postgresql://") {
		params, err := pq.ParseURL(connection)
		if err != nil {
			return "", errors.Wrap(err, "parsing connection URL")
		}
		connection = params
	}
	return disableDefaultSsl(connection), nil
}

// disableDefaultSsl adds sslmode=disable to params if sslmode is not set.
// lib/pq defaults to sslmode=require.
func disableDefaultSsl(params string) string {
	for _, p := range strings.Fields(params) {
		if strings.HasPrefix(p, "sslmode=") {
			return params
		}
	}
	return strings.TrimSpace(params + " sslmode=disable")
}
