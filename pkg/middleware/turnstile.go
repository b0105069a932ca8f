package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const TurnstileHeader = "TurnstileToken"

// Swapped in tests
var turnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

var turnstileClient = &http.Client{Timeout: 10 * time.Second}

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// NewTurnstileMiddleware verifies the Cloudflare Turnstile token of the
// request when cloudflare.turnstile.enabled is set
func NewTurnstileMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !viper.GetBool("cloudflare.turnstile.enabled") {
			c.Next()
			return
		}

		requestID := c.GetString("requestID")

		token := c.GetHeader(TurnstileHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "missing_turnstile_token",
				"requestID": requestID,
			})
			return
		}

		ok, err := verifyTurnstile(c.Request.Context(), token, c.ClientIP())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
				"error":     "turnstile_unavailable",
				"requestID": requestID,
			})

			zap.L().Error("Failed to verify turnstile token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "turnstile_failed",
				"requestID": requestID,
			})
			return
		}

		c.Next()
	}
}

func verifyTurnstile(ctx context.Context, token, ip string) (bool, error) {
	form := url.Values{
		"secret":   {viper.GetString("cloudflare.turnstile.secret_token")},
		"response": {token},
		"remoteip": {ip},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, turnstileVerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := turnstileClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var res turnstileResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return false, err
	}

	if !res.Success {
		zap.L().Debug("Turnstile rejected token", zap.Strings("errorCodes", res.ErrorCodes))
	}

	return res.Success, nil
}
