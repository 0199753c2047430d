// Package database opens the MySQL handle backing the seat inventory.
package database

import (
    "context"
    "database/sql"
    "fmt"
    "log"
    "time"

    _ "github.com/go-sql-driver/mysql"
)

const connectRetries = 10

// Open connects to MySQL and verifies the connection, retrying for a
// short while so the service can start alongside a database that is
// still coming up.  parseTime=true maps DATETIME to time.Time and
// loc=UTC keeps every timestamp consistent with the rest of the system.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    auth := user
    if pass != "" {
        auth = fmt.Sprintf("%s:%s", user, pass)
    }
    dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
        auth, host, port, name)

    db, err := sql.Open("mysql", dsn)
    if err != nil {
        return nil, err
    }

    db.SetMaxOpenConns(25)
    db.SetMaxIdleConns(25)
    db.SetConnMaxLifetime(30 * time.Minute)

    for attempt := 1; attempt <= connectRetries; attempt++ {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        err = db.PingContext(ctx)
        cancel()
        if err == nil {
            return db, nil
        }
        log.Printf("database: not reachable (attempt %d/%d): %v", attempt, connectRetries, err)
        time.Sleep(2 * time.Second)
    }
    return nil, fmt.Errorf("database unreachable after %d attempts: %w", connectRetries, err)
}
