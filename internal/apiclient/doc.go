// Package apiclient is the frontend's client for the backend api.
//
// A Client is configured once with the api base URL and a request timeout. Every request goes through:
//
//  1. request interceptors, run by Transport on a clone of the request. The defaults add an
//     X-Request-Id header and an "Authorization: Bearer <token>" header when an access token is found
//     in client-local storage (see the tokenstore package).
//  2. the underlying http transport.
//  3. response interceptors. 2xx responses are passed through unchanged. Anything else (including network
//     errors and timeouts) is converted to a *ClientError and passed along the rejection chain. The default
//     status handler calls the UnauthorizedHandler on 401 and logs 500 responses, then returns the error unchanged.
//
// The client does not retry, refresh tokens, cache responses or queue requests.
//
// Example:
//
//	store, _ := tokenstore.NewFileStore(cfg.TokenFile)
//	c := apiclient.NewClient(cfg.APIBaseURL,
//		apiclient.WithTimeout(cfg.RequestTimeout),
//		apiclient.WithTokenStore(store),
//	)
//	var users []User
//	if err := c.Get(ctx, "/users", &users); err != nil {
//		var clientErr *apiclient.ClientError
//		if errors.As(err, &clientErr) {
//			fmt.Println(clientErr.UserError())
//		}
//	}
package apiclient
