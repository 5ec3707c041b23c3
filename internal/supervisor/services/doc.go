// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

/*
Package services adapts roomcast components to suture.Service.

  - RunnerService: anything with RunWithContext(ctx) error. Used for the
    websocket hub, the ingress bridge and the timer ticker.
  - HTTPServerService: *http.Server, translating ListenAndServe/Shutdown into
    a context-aware Serve.
  - CloserService: holds a resource open until shutdown and then closes it.
    Used for the ingress backend and its embedded NATS server.

Every service implements fmt.Stringer so suture logs name it.

Example:

	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewIngressBridgeService(bridge))
	tree.AddDomainService(services.NewTimerService(timers))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

The component interfaces are declared here so this package does not import
websocket, ingress or timer.
*/
package services
