// Package session owns the credential pair of the signed-in user.
//
// A Manager is constructed once per process and handed to every component
// that needs the access credential. It keeps the pair in memory, writes it
// through to a Store, and broadcasts an Expired signal when the session is
// irrecoverably lost so that the application shell can return to the login
// screen.
package session
