// Package redis connects to Redis with go-redis/v9 and exposes a readiness
// probe for the health endpoint.
package redis
