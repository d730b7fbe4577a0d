// Package mongo manages connections to the MongoDB instance that backs the
// user record store.
//
// Configuration is environment-driven and connection setup retries transient
// failures, which keeps startup resilient against slow-to-boot database
// containers and Atlas hiccups.
//
// # Usage
//
//	cfg := mongo.Config{ConnectionURL: "mongodb://localhost:27017", Database: "briefly"}
//
//	db, err := mongo.ConnectDatabase(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Client().Disconnect(context.Background())
//
// Healthcheck wraps a Ping for readiness probes. Connection failures are
// wrapped in package sentinels so callers can use errors.Is.
package mongo
