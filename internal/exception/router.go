// Package exception selects the resolution workflow for an invoice's exceptions and
// applies resolution actions to them.
package exception

import (
	"payops/internal/domain"
)

// Branch identifies the resolution view an invoice is routed to.
type Branch string

const (
	BranchDuplicate      Branch = "duplicate_comparison"
	BranchExtraData      Branch = "extra_data"
	BranchValidation     Branch = "validation"
	BranchPurchaseOrder  Branch = "purchase_order"
	BranchPOLineItems    Branch = "po_line_items"
	BranchDataExtraction Branch = "data_extraction"
	BranchGenericUpload  Branch = "generic_upload"
)

// rule is one entry of the routing table. Rules are evaluated in declaration order and the
// first match wins, so the order of routes is the tie-break policy between exception types.
type rule struct {
	branch  Branch
	matches func(open []domain.Exception, duplicates []domain.Invoice) bool
}

var routes = []rule{
	{
		branch: BranchDuplicate,
		matches: func(open []domain.Exception, duplicates []domain.Invoice) bool {
			return hasType(open, domain.ExceptionDuplicateInvoice) && len(duplicates) > 0
		},
	},
	{
		branch: BranchExtraData,
		matches: func(open []domain.Exception, _ []domain.Invoice) bool {
			return hasType(open, domain.ExceptionExtraData)
		},
	},
	{
		branch: BranchValidation,
		matches: func(open []domain.Exception, _ []domain.Invoice) bool {
			return hasType(open, domain.ExceptionValidationError)
		},
	},
	{
		branch: BranchPurchaseOrder,
		matches: func(open []domain.Exception, _ []domain.Invoice) bool {
			return hasType(open, domain.ExceptionPOClosed, domain.ExceptionPOInsufficientFunds)
		},
	},
	{
		branch: BranchPOLineItems,
		matches: func(open []domain.Exception, _ []domain.Invoice) bool {
			for i := range open {
				if open[i].Type == domain.ExceptionMissingInformation &&
					open[i].HasMissingField(domain.MissingFieldPOLineItems) {
					return true
				}
			}
			return false
		},
	},
	{
		branch: BranchDataExtraction,
		matches: func(open []domain.Exception, _ []domain.Invoice) bool {
			return hasType(open, domain.ExceptionMissingInformation)
		},
	},
}

// Route picks exactly one resolution branch for the given exceptions. Resolved exceptions
// are ignored. duplicates holds the candidate invoices found for a DUPLICATE_INVOICE
// exception; without any, the duplicate branch cannot be taken.
func Route(exceptions []domain.Exception, duplicates []domain.Invoice) Branch {
	open := unresolved(exceptions)
	for _, r := range routes {
		if r.matches(open, duplicates) {
			return r.branch
		}
	}
	return BranchGenericUpload
}

// ActionsFor lists the resolution actions offered by a branch.
func ActionsFor(b Branch) []domain.ResolutionAction {
	switch b {
	case BranchDuplicate:
		return []domain.ResolutionAction{domain.ResolutionMarkResolved, domain.ResolutionExcluded}
	case BranchDataExtraction, BranchPOLineItems:
		return []domain.ResolutionAction{domain.ResolutionMarkResolved, domain.ResolutionUploadNewPDF}
	case BranchExtraData, BranchValidation, BranchPurchaseOrder:
		return []domain.ResolutionAction{
			domain.ResolutionMarkResolved, domain.ResolutionForceSubmit, domain.ResolutionExcluded,
		}
	default:
		return []domain.ResolutionAction{
			domain.ResolutionUploadNewPDF, domain.ResolutionForceSubmit, domain.ResolutionExcluded,
		}
	}
}

func hasType(exceptions []domain.Exception, types ...domain.ExceptionType) bool {
	for i := range exceptions {
		for _, t := range types {
			if exceptions[i].Type == t {
				return true
			}
		}
	}
	return false
}

func unresolved(exceptions []domain.Exception) []domain.Exception {
	out := make([]domain.Exception, 0, len(exceptions))
	for i := range exceptions {
		if !exceptions[i].Resolved {
			out = append(out, exceptions[i])
		}
	}
	return out
}
