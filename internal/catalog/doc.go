// Package catalog persists the product catalog and per-session
// liked-scene history in SQLite. The pipeline reads both; the HTTP
// layer and CLI write products, and scene likes arrive via the API.
package catalog
