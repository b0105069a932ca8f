// Package product contains the catalog and interaction endpoints
package product

import (
	"net/http"

	"grandeva/store-api/app/respond"
	"grandeva/store-api/internal"
	"grandeva/store-api/pkg/validators"

	"github.com/gin-gonic/gin"
)

// productID reads and checks the :id parameter. It has already responded
// when ok is false.
func productID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := validators.IDValidator(id); err != nil {
		respond.Fail(c, http.StatusBadRequest, "invalid_id")
		return "", false
	}

	return id, true
}

func List(c *gin.Context, d *internal.Deps) {
	products, err := d.Catalog.ListProducts(c.Request.Context())
	if err != nil {
		respond.Error(c, err, "Failed to list products")
		return
	}

	c.JSON(http.StatusOK, products)
}

func Fetch(c *gin.Context, d *internal.Deps) {
	id, ok := productID(c)
	if !ok {
		return
	}

	p, err := d.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err, "Failed to fetch product")
		return
	}

	c.JSON(http.StatusOK, p)
}
