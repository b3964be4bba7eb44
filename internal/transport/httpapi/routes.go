package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timhilliard/yubistack/internal/counterstore"
	"github.com/timhilliard/yubistack/internal/otp"
	"github.com/timhilliard/yubistack/internal/wire"
)

// registerRoutes wires the wsapi/2.0 verify endpoint, the sibling-facing
// sync endpoints, and /metrics.
func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", metricsHandler())

	wsapi := s.router.Group("/wsapi/2.0")
	wsapi.GET("/verify", s.handleVerify)

	s.router.GET("/sync", s.handleSync)
	s.router.POST("/resync", s.handleResync)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// handleVerify is the client-facing verify endpoint (spec §4.5). The
// response is always the signed key=value wire block, with HTTP 200
// regardless of the verify outcome: the wire status line carries the
// result (spec §6).
func (s *Server) handleVerify(c *gin.Context) {
	resp, _ := s.validator.Verify(c.Request.Context(), c.Request.URL.Query())
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(resp.Encode()))
}

// handleSync serves an inbound sibling sync request (spec §4.4 Inbound):
// the requester sends, as GET query parameters, its locally accepted
// otp+modified+info,
// and this replica reconciles it into its own Counter Store.
func (s *Server) handleSync(c *gin.Context) {
	q := c.Request.URL.Query()
	syncParams, err := otp.ParseSyncParams(q)
	if err != nil {
		c.String(http.StatusBadRequest, "ERR\n")
		return
	}

	rec, err := s.syncEngine.Inbound(c.Request.Context(), syncParams)
	if err != nil {
		// Siblings must converge even when this replica rejects the sync
		// (e.g. DISABLED_TOKEN): Inbound still returns the (possibly
		// updated) local record, and every required sync key must be
		// present for the caller's fieldsToParams to parse the response
		// at all (spec §4.4 Inbound step 6).
		fields := syncRecordFields(rec, syncParams.OTP)
		fields["status"] = err.Error()
		c.String(http.StatusOK, wire.EncodeBlock(fields))
		return
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(wire.EncodeBlock(syncRecordFields(rec, syncParams.OTP))))
}

func syncRecordFields(rec counterstore.Record, otpStr string) map[string]string {
	return map[string]string{
		"yk_publicname": rec.PublicName,
		"yk_counter":    strconv.FormatInt(rec.YkCounter, 10),
		"yk_use":        strconv.FormatInt(rec.YkUse, 10),
		"yk_high":       strconv.FormatInt(rec.YkHigh, 10),
		"yk_low":        strconv.FormatInt(rec.YkLow, 10),
		"nonce":         rec.Nonce,
		"modified":      strconv.FormatInt(rec.Modified, 10),
		"otp":           otpStr,
	}
}

// handleResync triggers an outbound full resync against the configured
// siblings (spec §4.6), for operator use after bringing a replica back
// from an extended outage.
func (s *Server) handleResync(c *gin.Context) {
	target := c.Query("yk_publicname")
	if target == "" {
		target = "all"
	}
	if err := s.validator.Resync(c.Request.Context(), target); err != nil {
		c.String(http.StatusInternalServerError, "ERR\n")
		return
	}
	c.String(http.StatusOK, "OK\n")
}
