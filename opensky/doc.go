// Package opensky implements types.StateFetcher against the OpenSky Network
// REST API (GET /states/all).
//
// Requests are authenticated with the airspace's basic-auth credentials,
// throttled by a shared token-bucket limiter, and retried with decorrelated
// jitter backoff on 429 and 5xx responses.
package opensky
