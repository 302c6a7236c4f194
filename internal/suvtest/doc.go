// Package suvtest runs an in-process suv server for tests and examples.
//
// The fake keeps users, records and photos in memory and reproduces the
// server contract the client depends on: the HttpOnly token cookie signed
// with HS256, the double-submit CSRF cookie refreshed on every GET, the
// {"error": "..."} reply shape and the admin-only user routes.
package suvtest
