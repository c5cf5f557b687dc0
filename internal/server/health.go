package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type persister interface {
	Name() string
	PersistError() error
}

// Health reports degraded while a store holds changes it could not write.
// In-memory state stays authoritative, so the service keeps answering.
func (s *Server) Health(c *gin.Context) {
	stores := make([]persister, 0, 2)
	if s.billingStore != nil {
		stores = append(stores, s.billingStore)
	}
	if s.ticketingStore != nil {
		stores = append(stores, s.ticketingStore)
	}

	status := "ok"
	details := gin.H{}
	for _, store := range stores {
		if err := store.PersistError(); err != nil {
			status = "degraded"
			details[store.Name()] = err.Error()
			continue
		}
		details[store.Name()] = "ok"
	}

	c.JSON(http.StatusOK, gin.H{"status": status, "stores": details})
}
