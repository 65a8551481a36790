package http

import (
	"time"

	"hangman/common/log"
)

// CorsMiddleware allows the browser client to call the API from another
// origin; the game itself trusts no origin information.
func CorsMiddleware() MiddlewareFunc {
	return func(c *Context) error {
		origin := c.GetHeader("Origin")

		if origin != "" {
			c.SetHeader("Access-Control-Allow-Origin", "*")
			c.SetHeader("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.SetHeader("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept")
			c.SetHeader("Access-Control-Allow-Credentials", "true")
		}

		if c.Method() == "OPTIONS" {
			c.AbortWithStatus(204)
			return nil
		}

		return nil
	}
}

func LoggerMiddleware() MiddlewareFunc {
	return func(c *Context) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		defer func() {
			log.Debug("HTTP %s %s from %s completed in %v", method, path, c.ClientIP(), time.Since(start))
		}()

		return nil
	}
}
