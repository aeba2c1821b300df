package exception_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"payops/internal/domain"
	"payops/internal/exception"
)

func ex(t domain.ExceptionType, missing ...string) domain.Exception {
	return domain.Exception{ID: uuid.New(), Type: t, MissingFields: missing}
}

func TestRoute_DuplicateWinsOverEverything(t *testing.T) {
	exceptions := []domain.Exception{
		ex(domain.ExceptionExtraData),
		ex(domain.ExceptionValidationError),
		ex(domain.ExceptionPOClosed),
		ex(domain.ExceptionMissingInformation, domain.MissingFieldPOLineItems),
		ex(domain.ExceptionDuplicateInvoice),
	}
	dupes := []domain.Invoice{{ID: uuid.New(), Number: "INV-1"}}

	assert.Equal(t, exception.BranchDuplicate, exception.Route(exceptions, dupes))
}

func TestRoute_DuplicateWithoutCandidatesFallsThrough(t *testing.T) {
	exceptions := []domain.Exception{
		ex(domain.ExceptionDuplicateInvoice),
		ex(domain.ExceptionValidationError),
	}

	assert.Equal(t, exception.BranchValidation, exception.Route(exceptions, nil))
}

func TestRoute_PriorityOrder(t *testing.T) {
	tests := []struct {
		name       string
		exceptions []domain.Exception
		want       exception.Branch
	}{
		{
			name:       "extra data beats validation",
			exceptions: []domain.Exception{ex(domain.ExceptionValidationError), ex(domain.ExceptionExtraData)},
			want:       exception.BranchExtraData,
		},
		{
			name:       "validation beats PO",
			exceptions: []domain.Exception{ex(domain.ExceptionPOInsufficientFunds), ex(domain.ExceptionValidationError)},
			want:       exception.BranchValidation,
		},
		{
			name:       "PO closed",
			exceptions: []domain.Exception{ex(domain.ExceptionPOClosed)},
			want:       exception.BranchPurchaseOrder,
		},
		{
			name:       "PO insufficient funds beats missing info",
			exceptions: []domain.Exception{ex(domain.ExceptionMissingInformation, "dueDate"), ex(domain.ExceptionPOInsufficientFunds)},
			want:       exception.BranchPurchaseOrder,
		},
		{
			name:       "missing PO line items",
			exceptions: []domain.Exception{ex(domain.ExceptionMissingInformation, "dueDate", domain.MissingFieldPOLineItems)},
			want:       exception.BranchPOLineItems,
		},
		{
			name:       "general missing information",
			exceptions: []domain.Exception{ex(domain.ExceptionMissingInformation, "dueDate")},
			want:       exception.BranchDataExtraction,
		},
		{
			name:       "no exceptions falls back to upload",
			exceptions: nil,
			want:       exception.BranchGenericUpload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exception.Route(tt.exceptions, nil))
		})
	}
}

func TestRoute_IgnoresResolvedExceptions(t *testing.T) {
	extra := ex(domain.ExceptionExtraData)
	extra.Resolved = true
	exceptions := []domain.Exception{extra, ex(domain.ExceptionPOClosed)}

	assert.Equal(t, exception.BranchPurchaseOrder, exception.Route(exceptions, nil))
}

func TestActionsFor_GenericUploadOffersPDFReplacement(t *testing.T) {
	actions := exception.ActionsFor(exception.BranchGenericUpload)

	assert.Contains(t, actions, domain.ResolutionUploadNewPDF)
	assert.Contains(t, actions, domain.ResolutionForceSubmit)
	assert.Contains(t, actions, domain.ResolutionExcluded)
}
