// Package remotefs exposes the file operations of the local app server:
// reading and writing files, listing folders, file stats, deleting, copying
// and resolving paths relative to the server root. Every method is a single
// bridge call; see the route constants for the wire contract.
package remotefs
