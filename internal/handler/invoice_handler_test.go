package handler_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"payops/internal/domain"
	"payops/internal/exception"
	"payops/internal/handler"
	"payops/internal/port"
	"payops/internal/service"
	"payops/mocks"
)

func setupInvoiceRouter() (*gin.Engine, *mocks.MockInvoiceService) {
	svc := new(mocks.MockInvoiceService)
	h := handler.NewInvoiceHandler(svc)
	r := gin.New()
	r.GET("/invoices", h.List)
	r.GET("/invoices/:id", h.GetByID)
	r.GET("/invoices/:id/resolution", h.GetResolution)
	r.POST("/invoices/:id/resolve", h.Resolve)
	r.POST("/invoices/:id/resolve/pdf", h.UploadPDF)
	return r, svc
}

func TestInvoiceHandler_List_Filters(t *testing.T) {
	r, svc := setupInvoiceRouter()
	invoices := []domain.Invoice{{ID: uuid.New(), Number: "INV-1"}}
	svc.On("List", mock.Anything, mock.MatchedBy(func(f port.InvoiceFilter) bool {
		return f.Status != nil && *f.Status == domain.InvoiceStatusException &&
			f.HasExceptions != nil && *f.HasExceptions
	}), 20, 10).Return(invoices, 21, nil)

	w := doJSON(r, http.MethodGet, "/invoices?status=EXCEPTION&has_exceptions=true&offset=20&limit=10", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 21, resp.Meta.Total)
	assert.Equal(t, 10, resp.Meta.Limit)
	svc.AssertExpectations(t)
}

func TestInvoiceHandler_List_InvalidHasExceptions(t *testing.T) {
	r, svc := setupInvoiceRouter()

	w := doJSON(r, http.MethodGet, "/invoices?has_exceptions=maybe", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILTER", errorCode(t, w))
	svc.AssertNotCalled(t, "List")
}

func TestInvoiceHandler_GetByID(t *testing.T) {
	r, svc := setupInvoiceRouter()
	missing := uuid.New()
	svc.On("GetByID", mock.Anything, missing).Return(nil, domain.ErrInvoiceNotFound)

	w := doJSON(r, http.MethodGet, "/invoices/"+missing.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "INVOICE_NOT_FOUND", errorCode(t, w))

	w = doJSON(r, http.MethodGet, "/invoices/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))
}

func TestInvoiceHandler_GetResolution(t *testing.T) {
	r, svc := setupInvoiceRouter()
	id := uuid.New()
	svc.On("GetResolution", mock.Anything, id).Return(&service.ResolutionView{
		Invoice: &domain.Invoice{ID: id},
		Branch:  exception.BranchPurchaseOrder,
	}, nil)

	w := doJSON(r, http.MethodGet, "/invoices/"+id.String()+"/resolution", nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)
	assert.Equal(t, string(exception.BranchPurchaseOrder), data["branch"])
}

func TestInvoiceHandler_Resolve(t *testing.T) {
	r, svc := setupInvoiceRouter()
	id := uuid.New()
	excID := uuid.New()
	svc.On("Resolve", mock.Anything, service.ResolveInput{
		InvoiceID:    id,
		Action:       domain.ResolutionMarkResolved,
		ExceptionIDs: []uuid.UUID{excID},
		Fields:       map[string]string{"dueDate": "2024-07-31"},
		Author:       "dana",
	}).Return(&service.ResolveResult{
		Invoice: &domain.Invoice{ID: id},
		Outcome: exception.Outcome{Action: domain.ResolutionMarkResolved, AllResolved: true, RedirectTo: "/invoices"},
	}, nil)

	body := map[string]any{
		"action":        "mark_resolved",
		"exception_ids": []string{excID.String()},
		"fields":        map[string]string{"dueDate": "2024-07-31"},
	}
	w := doJSON(r, http.MethodPost, "/invoices/"+id.String()+"/resolve", body, "X-Author", "dana")

	require.Equal(t, http.StatusOK, w.Code)
	outcome := decode(t, w).Data.(map[string]any)["outcome"].(map[string]any)
	assert.Equal(t, "/invoices", outcome["redirect_to"])
	svc.AssertExpectations(t)
}

func TestInvoiceHandler_Resolve_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		err    error
		status int
		code   string
	}{
		{"missing action", map[string]any{}, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"pdf action", map[string]any{"action": "UPLOAD_NEW_PDF"}, domain.ErrPDFRequired, http.StatusBadRequest, "PDF_REQUIRED"},
		{"nothing open", map[string]any{"action": "FORCE_SUBMIT"}, domain.ErrNoOpenExceptions, http.StatusConflict, "NO_OPEN_EXCEPTIONS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, svc := setupInvoiceRouter()
			if tt.err != nil {
				svc.On("Resolve", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			w := doJSON(r, http.MethodPost, "/invoices/"+uuid.NewString()+"/resolve", tt.body)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestInvoiceHandler_UploadPDF(t *testing.T) {
	r, svc := setupInvoiceRouter()
	id := uuid.New()
	excID := uuid.New()
	svc.On("UploadReplacementPDF", mock.Anything, mock.MatchedBy(func(in service.PDFUploadInput) bool {
		return in.InvoiceID == id && in.FileName == "fixed.pdf" && in.Size == 9 &&
			len(in.ExceptionIDs) == 1 && in.ExceptionIDs[0] == excID
	})).Return(&service.ResolveResult{Invoice: &domain.Invoice{ID: id}}, nil)

	w := doMultipart(r, "/invoices/"+id.String()+"/resolve/pdf", "fixed.pdf", []byte("%PDF-1.4\n"),
		map[string]string{"exception_ids": excID.String()})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestInvoiceHandler_UploadPDF_BadInput(t *testing.T) {
	r, svc := setupInvoiceRouter()
	id := uuid.NewString()

	w := doMultipart(r, "/invoices/"+id+"/resolve/pdf", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", errorCode(t, w))

	w = doMultipart(r, "/invoices/"+id+"/resolve/pdf", "fixed.pdf", []byte("%PDF"), map[string]string{"exception_ids": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))

	svc.AssertNotCalled(t, "UploadReplacementPDF")
}
