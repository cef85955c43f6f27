/*
Package auth guards the node's HTTP endpoints with operator API keys.

Keys come from server.api_keys in the configuration (or VESTA_SERVER_API_KEY)
and are presented as a bearer token or in the X-API-Key header:

	validator := auth.NewKeyValidator([]auth.Key{
		{Name: "field-ops", Secret: "0123456789abcdef", Enabled: true},
	})
	mux.Handle("/sync", auth.NewMiddleware(validator, nil).Handle(syncHandler))

Handlers can read the caller with OperatorFromContext.
*/
package auth
