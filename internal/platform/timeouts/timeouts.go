// Package timeouts defines shared timeout constants used across roomdesk
// processes.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight work during graceful
// shutdown.
const Shutdown = 5 * time.Second

// OutboundHTTP caps calls to external OAuth providers.
const OutboundHTTP = 10 * time.Second

// SMTPDial caps the connection phase of one outgoing email.
const SMTPDial = 10 * time.Second

// WebSocketWrite bounds a single push frame write to a slow client.
const WebSocketWrite = 5 * time.Second
