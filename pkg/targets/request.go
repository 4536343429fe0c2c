package targets

import (
	"net/url"

	"github.com/Paraschamoli/Bindu/pkg/httpclient"
)

// Request builds the client request for the target. Maps are copied so the
// registry is never shared with in-flight requests.
func (t Target) Request() *httpclient.Request {
	req := &httpclient.Request{
		Params:  toValues(t.Params),
		Form:    toValues(t.Form),
		JSON:    t.JSON,
		Headers: copyHeaders(t.Headers),
	}
	if len(t.RetryOnStatus) > 0 {
		req.RetryOnStatus = append([]int(nil), t.RetryOnStatus...)
	}
	return req
}

func toValues(m map[string]string) url.Values {
	if len(m) == 0 {
		return nil
	}
	out := make(url.Values, len(m))
	for k, v := range m {
		out.Set(k, v)
	}
	return out
}

func copyHeaders(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
