package http

import (
	"context"

	"github.com/gin-gonic/gin"
)

// Context wraps gin.Context behind the subset of request/response methods
// the handlers actually need.
type Context struct {
	ginCtx *gin.Context
}

func newContext(c *gin.Context) *Context {
	return &Context{ginCtx: c}
}

func (c *Context) GetParam(key string) string {
	return c.ginCtx.Param(key)
}

func (c *Context) GetQuery(key string) string {
	return c.ginCtx.Query(key)
}

func (c *Context) GetHeader(key string) string {
	return c.ginCtx.GetHeader(key)
}

func (c *Context) BindJSON(obj interface{}) error {
	return c.ginCtx.ShouldBindJSON(obj)
}

func (c *Context) JSON(code int, obj interface{}) {
	c.ginCtx.JSON(code, obj)
}

func (c *Context) String(code int, format string, values ...interface{}) {
	c.ginCtx.String(code, format, values...)
}

func (c *Context) SetHeader(key, value string) {
	c.ginCtx.Header(key, value)
}

func (c *Context) ClientIP() string {
	return c.ginCtx.ClientIP()
}

func (c *Context) UserAgent() string {
	return c.ginCtx.GetHeader("User-Agent")
}

func (c *Context) Method() string {
	return c.ginCtx.Request.Method
}

func (c *Context) Path() string {
	return c.ginCtx.Request.URL.Path
}

func (c *Context) Abort() {
	c.ginCtx.Abort()
}

func (c *Context) AbortWithStatus(code int) {
	c.ginCtx.AbortWithStatus(code)
}

func (c *Context) Status(code int) {
	c.ginCtx.Status(code)
}

// RequestContext exposes the request's context for store calls.
func (c *Context) RequestContext() context.Context {
	return c.ginCtx.Request.Context()
}
