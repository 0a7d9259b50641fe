package dto

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// multipartMemory bounds in-memory multipart parsing before spilling to disk.
const multipartMemory = 8 << 20

// paramsKey caches the merged parameters on the gin context.
const paramsKey = "dto.params"

// Params is the merged view of the inbound request: query string, form or
// multipart fields, JSON body and path parameters, later sources winning.
// Values keep their decoded type: a single query value is a string, a
// repeated one a []string, JSON values whatever encoding/json produced.
type Params map[string]any

// String returns the value of a string parameter, or "" when absent or not a string.
func (p Params) String(name string) string {
	s, _ := p[name].(string)
	return s
}

// Has reports whether a parameter is present and non-blank.
func (p Params) Has(name string) bool {
	v, ok := p[name]
	if !ok || v == nil {
		return false
	}

	if s, isString := v.(string); isString {
		return strings.TrimSpace(s) != ""
	}

	return true
}

// Present reports whether a parameter was sent at all, even blank.
func (p Params) Present(name string) bool {
	_, ok := p[name]
	return ok
}

// Missing returns the names that are absent or blank, in the order given.
func (p Params) Missing(names ...string) []string {
	var missing []string

	for _, name := range names {
		if !p.Has(name) {
			missing = append(missing, name)
		}
	}

	return missing
}

// ReadParams collects the request parameters once per request.
// The JSON body is cached under gin.BodyBytesKey so handlers can still bind it.
func ReadParams(c *gin.Context) Params {
	if cached, ok := c.Get(paramsKey); ok {
		if p, isParams := cached.(Params); isParams {
			return p
		}
	}

	p := make(Params)

	if c.Request != nil {
		if c.Request.URL != nil {
			p.mergeValues(c.Request.URL.Query())
		}

		switch c.ContentType() {
		case binding.MIMEJSON:
			p.mergeJSON(c)
		case binding.MIMEPOSTForm:
			if err := c.Request.ParseForm(); err == nil {
				p.mergeValues(c.Request.PostForm)
			}
		case binding.MIMEMultipartPOSTForm:
			if err := c.Request.ParseMultipartForm(multipartMemory); err == nil && c.Request.MultipartForm != nil {
				p.mergeValues(c.Request.MultipartForm.Value)

				for name, files := range c.Request.MultipartForm.File {
					p[name] = files
				}
			}
		}
	}

	for _, param := range c.Params {
		p[param.Key] = param.Value
	}

	c.Set(paramsKey, p)

	return p
}

func (p Params) mergeValues(values map[string][]string) {
	for k, v := range values {
		if len(v) == 1 {
			p[k] = v[0]
			continue
		}

		p[k] = v
	}
}

func (p Params) mergeJSON(c *gin.Context) {
	body := requestBody(c)
	if len(body) == 0 {
		return
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return
	}

	for k, v := range decoded {
		p[k] = v
	}
}

// requestBody reads and caches the raw body, restoring it for later readers.
func requestBody(c *gin.Context) []byte {
	if cached, ok := c.Get(gin.BodyBytesKey); ok {
		if b, isBytes := cached.([]byte); isBytes {
			return b
		}
	}

	if c.Request.Body == nil {
		return nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	c.Set(gin.BodyBytesKey, body)

	return body
}

// SanitizeParams keeps string values and replaces everything else with
// BinaryPlaceholder.
func SanitizeParams(p Params) map[string]string {
	out := make(map[string]string, len(p))

	for k, v := range p {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}

		out[k] = BinaryPlaceholder
	}

	return out
}

// Snapshot captures sanitised params and the full request URL.
func Snapshot(c *gin.Context) *Diagnostics {
	return &Diagnostics{
		Params: SanitizeParams(ReadParams(c)),
		Path:   requestURL(c),
	}
}

func requestURL(c *gin.Context) string {
	if c.Request == nil || c.Request.URL == nil {
		return ""
	}

	u := *c.Request.URL
	if u.Host == "" {
		u.Host = c.Request.Host
	}

	if u.Scheme == "" && u.Host != "" {
		u.Scheme = "http"
		if c.Request.TLS != nil {
			u.Scheme = "https"
		}
	}

	return u.String()
}
