package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/garyjia/billed/internal/application/service"
	"github.com/garyjia/billed/internal/domain/draft"
	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/domain/workflow"
	"github.com/garyjia/billed/internal/export"
)

const (
	maxReceiptSize = 10 << 20
	xlsxMIME       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportFileName = "notes-de-frais.xlsx"
	billsKey       = "bills"
)

// BillExporter renders display bills as a spreadsheet
type BillExporter interface {
	Write(w io.Writer, bills []entity.DisplayBill) (export.Totals, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	bills    service.BillListService
	drafts   *DraftRegistry
	exporter BillExporter
	group    *singleflight.Group
	logger   Logger
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Store     bool   `json:"store"`
}

// DraftResponse is a draft as seen by the form, with the UI effects of the request
type DraftResponse struct {
	ID            string   `json:"id"`
	State         string   `json:"state"`
	FileName      string   `json:"fileName,omitempty"`
	FileValidity  string   `json:"fileValidity"`
	FileURL       string   `json:"fileUrl,omitempty"`
	PendingBillID string   `json:"pendingBillId,omitempty"`
	UI            UIEvents `json:"ui"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Store:     h.bills.HasStore(),
		},
	})
}

// ListBills handles GET /api/bills. Without a store, data is null.
func (h *Handlers) ListBills(c *gin.Context) {
	bills, err := h.fetchBills(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to fetch bills", "error", err)
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: bills})
}

// ExportBills handles GET /api/bills/export
func (h *Handlers) ExportBills(c *gin.Context) {
	bills, err := h.fetchBills(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to fetch bills for export", "error", err)
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}

	var buf bytes.Buffer
	if _, err := h.exporter.Write(&buf, bills); err != nil {
		h.logger.Error("Failed to export bills", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "export failed"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+exportFileName+`"`)
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}

// BillProof handles GET /api/bills/:id/proof by redirecting to the receipt
func (h *Handlers) BillProof(c *gin.Context) {
	id := c.Param("id")

	url, err := h.bills.ProofURL(c.Request.Context(), id)
	switch {
	case errors.Is(err, service.ErrBillNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "bill not found"})
		return
	case errors.Is(err, service.ErrStoreNotConfigured):
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: err.Error()})
		return
	case err != nil:
		h.logger.Error("Failed to resolve proof", "bill_id", id, "error", err)
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}

	if url == "" {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "bill has no receipt"})
		return
	}
	c.Redirect(http.StatusFound, url)
}

// OpenDraft handles POST /api/drafts
func (h *Handlers) OpenDraft(c *gin.Context) {
	id, session := h.drafts.Open()
	h.logger.Info("Draft opened", "draft_id", id)
	c.JSON(http.StatusCreated, Response{Success: true, Data: draftResponse(id, session)})
}

// GetDraft handles GET /api/drafts/:id
func (h *Handlers) GetDraft(c *gin.Context) {
	id, session, ok := h.lookupDraft(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: draftResponse(id, session)})
}

// SelectDraftFile handles PUT /api/drafts/:id/file with a multipart "file" field
func (h *Handlers) SelectDraftFile(c *gin.Context) {
	id, session, ok := h.lookupDraft(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "file field is required"})
		return
	}
	if header.Size > maxReceiptSize {
		c.JSON(http.StatusRequestEntityTooLarge, Response{Success: false, Error: "receipt too large"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unreadable file"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unreadable file"})
		return
	}

	err = session.workflow.SelectFile(c.Request.Context(), draft.FileSelection{
		Path:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	})
	h.respondDraft(c, id, session, err)
}

// SubmitDraft handles POST /api/drafts/:id/submit with the form fields as a JSON object
func (h *Handlers) SubmitDraft(c *gin.Context) {
	id, session, ok := h.lookupDraft(c)
	if !ok {
		return
	}

	var form map[string]string
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid form body"})
		return
	}

	err := session.workflow.Submit(c.Request.Context(), draft.FormSnapshot(form))
	h.respondDraft(c, id, session, err)

	// the user has been sent back to the bill list; the draft is done
	if session.workflow.Draft().State == workflow.StateFinalized {
		if closeErr := h.drafts.Close(id); closeErr == nil {
			h.logger.Info("Draft finalized and closed", "draft_id", id)
		}
	}
}

// CloseDraft handles DELETE /api/drafts/:id
func (h *Handlers) CloseDraft(c *gin.Context) {
	id := c.Param("id")
	if err := h.drafts.Close(id); err != nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
		return
	}
	h.logger.Info("Draft closed", "draft_id", id)
	c.JSON(http.StatusOK, Response{Success: true})
}

// fetchBills coalesces concurrent list requests into one store call
func (h *Handlers) fetchBills(ctx context.Context) ([]entity.DisplayBill, error) {
	v, err, shared := h.group.Do(billsKey, func() (interface{}, error) {
		return h.bills.FetchBills(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		h.logger.Info("Bill list shared between requests")
	}
	return v.([]entity.DisplayBill), nil
}

func (h *Handlers) lookupDraft(c *gin.Context) (string, *DraftSession, bool) {
	id := c.Param("id")
	session, err := h.drafts.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
		return "", nil, false
	}
	return id, session, true
}

// respondDraft writes the draft state and UI effects, with a status derived from err
func (h *Handlers) respondDraft(c *gin.Context, id string, session *DraftSession, err error) {
	body := draftResponse(id, session)
	if err == nil {
		c.JSON(http.StatusOK, Response{Success: true, Data: body})
		return
	}
	c.JSON(statusFor(err), Response{Success: false, Data: body, Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, draft.ErrSubmissionInFlight):
		return http.StatusConflict
	case errors.Is(err, draft.ErrNoValidReceipt):
		return http.StatusUnprocessableEntity
	case errors.Is(err, draft.ErrMissingIdentity):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrStoreNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrSubmissionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func draftResponse(id string, session *DraftSession) DraftResponse {
	d := session.workflow.Draft()
	return DraftResponse{
		ID:            id,
		State:         d.State.String(),
		FileName:      d.FileName,
		FileValidity:  d.FileValidity.String(),
		FileURL:       d.FileURL,
		PendingBillID: d.PendingBillID,
		UI:            session.ui.Drain(),
	}
}
