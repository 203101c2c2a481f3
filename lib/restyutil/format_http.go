package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
)

// renderHeaders flattens headers into "Key: Value" lines, sorted so that
// consecutive dumps of the same exchange diff cleanly.
func renderHeaders(headers http.Header) string {
	lines := make([]string, 0, len(headers))
	for k, vals := range headers {
		for _, v := range vals {
			lines = append(lines, k+": "+v)
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func renderRequestBody(req *http.Request) string {
	if req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return "failed to get request body: " + err.Error()
	}
	read, err := io.ReadAll(body)
	if err != nil {
		return "failed to read request body: " + err.Error()
	}
	return string(read)
}

func formatHttpMessage(res *resty.Response) string {
	finalUrl := res.Request.URL
	if redirected, err := res.RawResponse.Location(); err == nil {
		finalUrl = redirected.String()
	}

	var out strings.Builder
	fmt.Fprintf(&out, "---- REQUEST ----\n\n%s %s\n\n", res.Request.Method, res.Request.URL)
	out.WriteString(renderHeaders(res.Request.RawRequest.Header))
	out.WriteString("\n\n")
	out.WriteString(renderRequestBody(res.Request.RawRequest))
	fmt.Fprintf(&out, "\n\n---- RESPONSE ----\n\n%d %s\n\n", res.StatusCode(), finalUrl)
	out.WriteString(renderHeaders(res.Header()))
	out.WriteString("\n\n")
	out.WriteString(res.String())
	return out.String()
}
