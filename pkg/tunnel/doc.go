// Package tunnel exchanges HTTP requests through upstream SOCKS proxies.
//
// A Description names the target URL with optional method, headers, and a
// body drawn from one of four sources (JSON, multipart files, form values,
// or raw bytes). Client.Exchange builds a fresh SOCKS5 tunnel through the
// given proxy, sends the request with keep-alives disabled, and returns a
// Response whose body is fully buffered.
//
// Exchange errors fall into two classes that callers may treat
// differently: TimeoutError for exceeded time budgets and TunnelError for
// transport failures at the connect, auth, or tunnel stage. An HTTP error
// status is not an exchange error; the response is returned as-is.
package tunnel
