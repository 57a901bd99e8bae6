// Package bot assembles chembot from its parts.
//
// # Overview
//
// A Bot owns one instance of each shared component:
//
//   - the compound lookup service (PubChem client, optionally behind the cache)
//   - the session store (optionally backed by SQLite)
//   - the conversation engine and its per-user dispatcher
//   - the option memory, renderer and image fetcher used by transports
//
// Transports (Matrix, console) are attached with AddTransport and run
// together under one errgroup. When any transport stops, the others are
// cancelled and queued events are drained before Run returns.
//
// # HTTP Endpoints
//
// When server.http_addr is set the bot also serves:
//
//   - GET /health - Liveness check
//   - GET /health/ready - Every transport is connected
//   - GET /stats - JSON counters (tracked users, cached lookups, active queues)
package bot
