// Package client talks to the SessionKeeper HTTP API and keeps the token
// pair between invocations in a local session file.
package client
