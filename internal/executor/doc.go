/*
Package executor is the bridge between the UI loop and the network.

# Overview

A Bridge turns a Request (method, URL, headers, body) into exactly one
Result. Execute performs the exchange on the calling goroutine; Dispatch
runs it on a new goroutine and hands the Result back on a one-shot
channel, so the UI loop never blocks on I/O.

# Normalization

Before anything is sent:
  - An empty URL fails with ErrInvalidRequest
  - A URL without http:// or https:// gets https:// prepended
  - Disabled headers are dropped
  - A User-Agent is added when the request has none

# Bodies

Json:
  - Comments and trailing commas are tolerated
  - Valid JSON is re-encoded in compact form
  - Invalid JSON is sent as written, with a warning logged
  - Content-Type is always application/json

FormUrlEncoded:
  - Sent as application/x-www-form-urlencoded, keys sorted

Multipart:
  - Used when the body is None and multipart fields are present
  - Fields with a FilePath are streamed from disk

# Errors

Any status code is a successful exchange. Transport failures (DNS, TLS,
connect, timeout, malformed responses) come back as *NetworkError whose
Message is a short human-readable description of the failure.

# Example Usage

	bridge := executor.NewBridge(executor.WithUserAgent("Setu/0.1.0"))

	result := <-bridge.Dispatch(ctx, executor.Request{
		Method: types.MethodGet,
		URL:    "api.example.com/users",
	})
	if result.Err != nil {
		return result.Err
	}

	fmt.Println(result.Response.StatusCode, result.Response.FormattedSize())
*/
package executor
