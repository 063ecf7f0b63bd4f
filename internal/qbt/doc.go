// Package qbt is a minimal qBittorrent Web API client covering what a
// convergence pass needs: session login, preference updates, and the
// temporary-password bootstrap for a freshly created container.
//
// qBittorrent's Web API is session-based (an SID cookie issued by
// /api/v2/auth/login and form-encoded request bodies), so this package
// keeps its own cookie-jar HTTP client instead of going through the
// stateless JSON transport the *arr applications use.
package qbt
