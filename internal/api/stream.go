package api

import (
	"io"

	"github.com/gin-gonic/gin"
)

const streamBuffer = 64

// streamEvents relays lifecycle events as server-sent events until the client goes away.
// A "ready" event is sent once the subscription is in place.
func (s *Server) streamEvents(c *gin.Context) {
	ch, unsubscribe := s.broker.Subscribe(streamBuffer)
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("ready", gin.H{"at": s.now()})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true
		}
	})
}
