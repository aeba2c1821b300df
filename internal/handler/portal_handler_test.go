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
	"payops/internal/handler"
	"payops/internal/port"
	"payops/internal/portal"
	"payops/internal/service"
	"payops/mocks"
)

func setupPortalRecordRouter() (*gin.Engine, *mocks.MockPortalRecordService) {
	svc := new(mocks.MockPortalRecordService)
	h := handler.NewPortalRecordHandler(svc)
	r := gin.New()
	r.GET("/portal-records", h.List)
	r.GET("/portal-records/:id", h.GetByID)
	r.POST("/portal-records/:id/make-primary", h.MakePrimary)
	r.POST("/portal-records/:id/link", h.Link)
	r.POST("/portal-records/:id/unlink", h.Unlink)
	r.GET("/smart-connections", h.SmartConnections)
	return r, svc
}

func setupPortalUserRouter() (*gin.Engine, *mocks.MockPortalUserService) {
	svc := new(mocks.MockPortalUserService)
	h := handler.NewPortalUserHandler(svc)
	r := gin.New()
	r.GET("/portal-users", h.List)
	r.POST("/portal-users", h.Create)
	r.GET("/portal-users/:id", h.GetByID)
	r.PUT("/portal-users/:id", h.Update)
	r.DELETE("/portal-users/:id", h.Delete)
	r.POST("/portal-users/:id/revalidate", h.Revalidate)
	return r, svc
}

func TestPortalRecordHandler_List(t *testing.T) {
	r, svc := setupPortalRecordRouter()
	invoiceID := uuid.New()
	svc.On("List", mock.Anything, mock.MatchedBy(func(f port.PortalRecordFilter) bool {
		return f.MatchType == domain.MatchAlternate && f.InvoiceID != nil && *f.InvoiceID == invoiceID && f.Portal == "Coupa"
	}), 0, 20).Return([]domain.PortalRecord{{ID: uuid.New()}}, 1, nil)

	w := doJSON(r, http.MethodGet, "/portal-records?match_type=Alternate&portal=Coupa&invoice_id="+invoiceID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestPortalRecordHandler_List_InvalidFilters(t *testing.T) {
	r, svc := setupPortalRecordRouter()

	w := doJSON(r, http.MethodGet, "/portal-records?match_type=Best", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/portal-records?invoice_id=42", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertNotCalled(t, "List")
}

func TestPortalRecordHandler_MakePrimary(t *testing.T) {
	r, svc := setupPortalRecordRouter()
	id, unlinked := uuid.New(), uuid.New()
	svc.On("MakePrimary", mock.Anything, id, "dana").Return(&service.PortalRecordResult{
		Record:  &domain.PortalRecord{ID: id, MatchType: domain.MatchPrimary},
		Changed: []domain.PortalRecord{{ID: id}, {ID: uuid.New()}},
	}, nil)
	svc.On("MakePrimary", mock.Anything, unlinked, "").Return(nil, domain.ErrRecordNotLinked)

	w := doJSON(r, http.MethodPost, "/portal-records/"+id.String()+"/make-primary", nil, "X-Author", "dana")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)
	assert.Len(t, data["changed"], 2)

	w = doJSON(r, http.MethodPost, "/portal-records/"+unlinked.String()+"/make-primary", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "RECORD_NOT_LINKED", errorCode(t, w))
}

func TestPortalRecordHandler_LinkAndUnlink(t *testing.T) {
	r, svc := setupPortalRecordRouter()
	id, invoiceID := uuid.New(), uuid.New()
	svc.On("Link", mock.Anything, id, invoiceID, "").Return(&service.PortalRecordResult{
		Record: &domain.PortalRecord{ID: id, InvoiceID: &invoiceID, MatchType: domain.MatchAlternate},
	}, nil)
	svc.On("Unlink", mock.Anything, id, "").Return(&service.PortalRecordResult{
		Record: &domain.PortalRecord{ID: id, MatchType: domain.MatchUnmatched},
	}, nil)

	w := doJSON(r, http.MethodPost, "/portal-records/"+id.String()+"/link", map[string]string{"invoice_id": invoiceID.String()})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/portal-records/"+id.String()+"/link", map[string]string{"invoice_id": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/portal-records/"+id.String()+"/unlink", nil)
	require.Equal(t, http.StatusOK, w.Code)
	record := decode(t, w).Data.(map[string]any)["record"].(map[string]any)
	assert.Equal(t, "Unmatched", record["match_type"])

	svc.AssertExpectations(t)
}

func TestPortalRecordHandler_SmartConnections(t *testing.T) {
	r, svc := setupPortalRecordRouter()
	svc.On("ListSmartConnections", mock.Anything).Return([]domain.SmartConnection{{ID: uuid.New()}}, nil)

	w := doJSON(r, http.MethodGet, "/smart-connections", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Data, 1)
}

func TestPortalUserHandler_List(t *testing.T) {
	r, svc := setupPortalUserRouter()
	svc.On("List", mock.Anything, service.PortalUserListInput{GroupBy: portal.GroupStatus, Sort: portal.SortUpdated, Desc: true}).
		Return([]portal.UserGroup{{Key: "Connected", Count: 1}}, nil)
	svc.On("List", mock.Anything, service.PortalUserListInput{Sort: portal.SortUsername}).
		Return([]portal.UserGroup{{Count: 3}}, nil)

	w := doJSON(r, http.MethodGet, "/portal-users?group_by=status&sort=updated&order=DESC", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/portal-users", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.AssertExpectations(t)
}

func TestPortalUserHandler_List_InvalidQuery(t *testing.T) {
	for _, q := range []string{"group_by=color", "sort=age", "order=sideways"} {
		t.Run(q, func(t *testing.T) {
			r, svc := setupPortalUserRouter()

			w := doJSON(r, http.MethodGet, "/portal-users?"+q, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			svc.AssertNotCalled(t, "List")
		})
	}
}

func TestPortalUserHandler_Create(t *testing.T) {
	r, svc := setupPortalUserRouter()
	input := portal.CredentialInput{Portal: "Coupa", Username: "ap@acme.example", Password: "s3cretpass"}
	svc.On("Create", mock.Anything, input).Return(&service.PortalUserResult{
		User: &domain.PortalUser{ID: uuid.New(), Portal: "Coupa", Status: domain.PortalUserConnected},
	}, nil)

	w := doJSON(r, http.MethodPost, "/portal-users", input)

	require.Equal(t, http.StatusCreated, w.Code)
	user := decode(t, w).Data.(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "Connected", user["status"])
	assert.NotContains(t, user, "password_hash")
}

func TestPortalUserHandler_Create_ValidationError(t *testing.T) {
	r, svc := setupPortalUserRouter()
	svc.On("Create", mock.Anything, mock.Anything).Return(nil, &portal.ValidationError{
		Err: domain.ErrInvalidTwoFactor, Field: "phone", Message: "Must be an E.164 phone number",
	})

	w := doJSON(r, http.MethodPost, "/portal-users", map[string]any{
		"portal": "Coupa", "username": "ap", "password": "s3cretpass",
		"two_factor": map[string]string{"method": "phone"},
	})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "INVALID_TWO_FACTOR", resp.Error.Code)
	assert.Equal(t, "phone", resp.Error.Field)
}

func TestPortalUserHandler_UpdateDeleteRevalidate(t *testing.T) {
	r, svc := setupPortalUserRouter()
	monto, external := uuid.New(), uuid.New()
	svc.On("Update", mock.Anything, monto, mock.Anything).Return(nil, domain.ErrPortalUserReadOnly)
	svc.On("Delete", mock.Anything, monto).Return(domain.ErrPortalUserReadOnly)
	svc.On("Delete", mock.Anything, external).Return(nil)
	svc.On("Revalidate", mock.Anything, external).Return(&service.PortalUserResult{
		User: &domain.PortalUser{ID: external, Status: domain.PortalUserDisconnected},
	}, nil)

	w := doJSON(r, http.MethodPut, "/portal-users/"+monto.String(), map[string]string{"portal": "Tungsten", "username": "svc"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodDelete, "/portal-users/"+monto.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodDelete, "/portal-users/"+external.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/portal-users/"+external.String()+"/revalidate", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.AssertExpectations(t)
}
