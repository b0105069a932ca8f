package product

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"grandeva/store-api/app/respond"
	"grandeva/store-api/internal"
	"grandeva/store-api/internal/model"
	"grandeva/store-api/internal/service"
	"grandeva/store-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Create expects a multipart form with the image under "image" and the
// fields name, type, price (optional) and features (optional JSON)
func Create(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	fh, err := c.FormFile("image")
	if err != nil {
		zap.L().Debug("No image in form", zap.Error(err), zap.String("requestID", requestID))
		respond.Fail(c, http.StatusBadRequest, "missing_image")
		return
	}

	code, f, err := validators.ImageValidator(fh)
	if err != nil {
		if code == http.StatusInternalServerError {
			respond.Error(c, err, "Failed to read uploaded image")
			return
		}

		respond.Fail(c, code, "invalid_image")
		return
	}
	defer f.Close()

	var price *float64
	if raw := strings.TrimSpace(c.PostForm("price")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respond.Fail(c, http.StatusBadRequest, "invalid_price")
			return
		}
		price = &v
	}

	var features json.RawMessage
	if raw := strings.TrimSpace(c.PostForm("features")); raw != "" {
		features = json.RawMessage(raw)
	}

	p, err := d.Catalog.CreateProduct(c.Request.Context(), service.CreateProductInput{
		Name:     c.PostForm("name"),
		Type:     model.ProductType(strings.ToUpper(strings.TrimSpace(c.PostForm("type")))),
		Price:    price,
		Features: features,
		Image:    f,
		Filename: fh.Filename,
	})
	if err != nil {
		respond.Error(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, p)
}
