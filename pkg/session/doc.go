// Package session stores the serialized platform session between runs.
//
// The blob is opaque here: the store only checks existence, asks an
// optional Validator whether the client can restore it, and writes it
// back atomically after a successful login.
package session
