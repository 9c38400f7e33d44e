// Package httpclient is the HTTP transport shared by the repository and the
// metrics reporter. It wraps a resty client configured with the toggle
// service base URL, identity headers (application name, instance id and
// user agent) and caller supplied custom headers.
//
//	c, err := httpclient.New("https://toggles.example.com/api", "billing",
//	    httpclient.WithInstanceID("billing-7f9c"),
//	    httpclient.WithHeaders(map[string]string{"Authorization": token}),
//	)
//	req, err := c.R(ctx)
//	resp, err := req.Get("client/features")
//
// No request timeout is applied unless WithTimeout is used.
package httpclient
