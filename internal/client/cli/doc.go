// Package cli implements sessionctl, a small command-line front end for the
// SessionKeeper API: signup, login, profile, refresh and logout.
package cli
