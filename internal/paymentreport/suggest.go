package paymentreport

// aliases are common alternative header spellings seen in customer exports, normalized.
var aliases = map[string][]string{
	FieldInvoiceNumber:        {"invoiceno", "invoicenum", "invoice", "invoiceid", "docnumber", "documentnumber"},
	FieldIssueDate:            {"invoicedate", "issuedon", "date", "documentdate"},
	FieldDueDate:              {"duedate", "paymentduedate", "dueon"},
	FieldPaymentTerms:         {"terms", "paymentterm"},
	FieldBillingCurrency:      {"currency", "currencycode", "ccy"},
	FieldReceivable:           {"supplier", "vendor", "payee", "seller"},
	FieldPayable:              {"buyer", "customer", "payer"},
	FieldTotalAmount:          {"total", "amount", "invoiceamount", "grossamount", "totalinvoiceamount"},
	FieldTotalRemainingAmount: {"remaining", "remainingamount", "openamount", "balance", "outstanding"},
	FieldStatus:               {"paymentstatus", "invoicestatus"},
	FieldPONumber:             {"po", "ponum", "purchaseorder", "purchaseordernumber"},
	FieldTaxTotal:             {"tax", "taxamount", "vat", "vatamount"},
	FieldType:                 {"documenttype", "invoicetype"},
	FieldTransactionID:        {"transaction", "txnid", "paymentid", "reference"},
}

// SuggestMappings proposes a mapping for the given headers. An exact match on the field
// label or key wins over an alias match, and every header is used at most once.
func SuggestMappings(headers []string) FieldMappings {
	byNorm := make(map[string]string, len(headers))
	for _, h := range headers {
		n := normalizeHeader(h)
		if n == "" {
			continue
		}
		if _, dup := byNorm[n]; !dup {
			byNorm[n] = h
		}
	}

	used := make(map[string]bool)
	mappings := make(FieldMappings)
	claim := func(key, norm string) bool {
		h, ok := byNorm[norm]
		if !ok || used[h] {
			return false
		}
		used[h] = true
		mappings[key] = h
		return true
	}

	for _, f := range PaymentReportFields {
		if !claim(f.Key, normalizeHeader(f.Label)) {
			claim(f.Key, normalizeHeader(f.Key))
		}
	}
	for _, f := range PaymentReportFields {
		if _, done := mappings[f.Key]; done {
			continue
		}
		for _, alias := range aliases[f.Key] {
			if claim(f.Key, alias) {
				break
			}
		}
	}
	return mappings
}
