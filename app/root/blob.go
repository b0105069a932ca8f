package root

import (
	"net/http"
	"strings"

	"grandeva/store-api/app/respond"
	"grandeva/store-api/storage"

	"github.com/gin-gonic/gin"
)

// Blob serves objects of the in-process store, which has no public host of
// its own
func Blob(m *storage.Memory) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, ct, err := m.Get(strings.TrimPrefix(c.Param("key"), "/"))
		if err != nil {
			respond.Fail(c, http.StatusNotFound, "not_found")
			return
		}

		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.Data(http.StatusOK, ct, data)
	}
}
