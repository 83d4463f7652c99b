package core

import (
	"fmt"
	"strings"
)

// --- dynamic qr ---

// Transaction codes the gateway accepts on QR generation: buy goods,
// withdraw agent, pay bill, send money, send to business.
var qrTransactionCodes = map[string]struct{}{
	"BG": {},
	"WA": {},
	"PB": {},
	"SM": {},
	"SB": {},
}

type dynamicQRPayload struct {
	MerchantName string `json:"MerchantName"`
	RefNo        string `json:"RefNo"`
	Amount       int64  `json:"Amount"`
	TrxCode      string `json:"TrxCode"`
	CPI          string `json:"CPI"`
	Size         string `json:"Size"`
}

type DynamicQRRequest struct {
	MerchantName string
	Reference    string
	Amount       float64
	// TransactionCode is one of BG, WA, PB, SM, SB.
	TransactionCode string
	// CreditPartyIdentifier is the till, paybill, agent or msisdn the
	// scanned payment credits.
	CreditPartyIdentifier string
	Size                  string
}

func (b *RequestBuilder) DynamicQR(req DynamicQRRequest) (OperationRequest, error) {
	if strings.TrimSpace(req.MerchantName) == "" {
		return OperationRequest{}, badInputError(ClientErrorBadInput, "core: merchant name is required")
	}
	if _, ok := qrTransactionCodes[req.TransactionCode]; !ok {
		return OperationRequest{}, badInputError(ClientErrorBadInput,
			fmt.Sprintf("core: unknown qr transaction code %q", req.TransactionCode))
	}
	whole, err := wholeAmount(req.Amount)
	if err != nil {
		return OperationRequest{}, err
	}
	cpi := strings.TrimSpace(req.CreditPartyIdentifier)
	if cpi == "" {
		cpi = b.config.Shortcode
	}
	size := strings.TrimSpace(req.Size)
	if size == "" {
		size = "300"
	}
	return OperationRequest{
		Path: pathDynamicQR,
		Payload: dynamicQRPayload{
			MerchantName: req.MerchantName,
			RefNo:        truncate(req.Reference, maxAccountReferenceLen),
			Amount:       whole,
			TrxCode:      req.TransactionCode,
			CPI:          cpi,
			Size:         size,
		},
	}, nil
}

// --- tax remittance ---

type taxRemittancePayload struct {
	Initiator              string `json:"Initiator"`
	SecurityCredential     string `json:"SecurityCredential"`
	CommandID              string `json:"CommandID"`
	SenderIdentifierType   string `json:"SenderIdentifierType"`
	RecieverIdentifierType string `json:"RecieverIdentifierType"`
	Amount                 int64  `json:"Amount"`
	PartyA                 string `json:"PartyA"`
	PartyB                 string `json:"PartyB"`
	AccountReference       string `json:"AccountReference"`
	Remarks                string `json:"Remarks"`
	QueueTimeOutURL        string `json:"QueueTimeOutURL"`
	ResultURL              string `json:"ResultURL"`
}

type TaxRemittanceRequest struct {
	Amount float64
	// PaymentRegistrationNumber is the PRN issued by the revenue
	// authority for the declaration being settled.
	PaymentRegistrationNumber string
	Remarks                   string
}

func (b *RequestBuilder) TaxRemittance(req TaxRemittanceRequest) (OperationRequest, error) {
	if strings.TrimSpace(req.PaymentRegistrationNumber) == "" {
		return OperationRequest{}, badInputError(ClientErrorBadInput, "core: payment registration number is required")
	}
	if err := validateCallbackURLs(b.config.TaxResultURL, b.config.TaxTimeoutURL); err != nil {
		return OperationRequest{}, err
	}
	whole, err := wholeAmount(req.Amount)
	if err != nil {
		return OperationRequest{}, err
	}
	credential, err := b.securityCredential()
	if err != nil {
		return OperationRequest{}, err
	}
	return OperationRequest{
		Path: pathTaxRemittance,
		Payload: taxRemittancePayload{
			Initiator:              b.config.InitiatorName,
			SecurityCredential:     credential,
			CommandID:              "PayTaxToKRA",
			SenderIdentifierType:   "4",
			RecieverIdentifierType: "4",
			Amount:                 whole,
			PartyA:                 b.config.Shortcode,
			PartyB:                 taxAuthorityShortcode,
			AccountReference:       req.PaymentRegistrationNumber,
			Remarks:                truncate(req.Remarks, maxRemarksLen),
			QueueTimeOutURL:        b.config.TaxTimeoutURL,
			ResultURL:              b.config.TaxResultURL,
		},
	}, nil
}

// --- bill manager ---

type billManagerOptInPayload struct {
	Shortcode       string `json:"shortcode"`
	Email           string `json:"email"`
	OfficialContact string `json:"officialContact"`
	SendReminders   int    `json:"sendReminders"`
	Logo            string `json:"logo"`
	CallbackURL     string `json:"callbackurl"`
}

type BillManagerOptInRequest struct {
	Email           string
	OfficialContact string
	SendReminders   bool
	LogoURL         string
}

func (b *RequestBuilder) BillManagerOptIn(req BillManagerOptInRequest) (OperationRequest, error) {
	if strings.TrimSpace(req.Email) == "" {
		return OperationRequest{}, badInputError(ClientErrorBadInput, "core: email is required")
	}
	contact, err := NormalizePhone(req.OfficialContact)
	if err != nil {
		return OperationRequest{}, err
	}
	if err := ValidateCallbackURL(b.config.BillOptInCallbackURL); err != nil {
		return OperationRequest{}, err
	}
	reminders := 0
	if req.SendReminders {
		reminders = 1
	}
	return OperationRequest{
		Path: pathBillManagerOptIn,
		Payload: billManagerOptInPayload{
			Shortcode:       b.config.Shortcode,
			Email:           req.Email,
			OfficialContact: contact,
			SendReminders:   reminders,
			Logo:            req.LogoURL,
			CallbackURL:     b.config.BillOptInCallbackURL,
		},
	}, nil
}

type InvoiceItem struct {
	ItemName string  `json:"itemName"`
	Amount   float64 `json:"amount"`
}

type invoicePayload struct {
	ExternalReference string        `json:"externalReference"`
	BilledFullName    string        `json:"billedFullName"`
	BilledPhoneNumber string        `json:"billedPhoneNumber"`
	BilledPeriod      string        `json:"billedPeriod"`
	InvoiceName       string        `json:"invoiceName"`
	DueDate           string        `json:"dueDate"`
	AccountReference  string        `json:"accountReference"`
	Amount            int64         `json:"amount"`
	InvoiceItems      []InvoiceItem `json:"invoiceItems,omitempty"`
}

type InvoiceRequest struct {
	ExternalReference string
	BilledFullName    string
	BilledPhoneNumber string
	// BilledPeriod is the "Month Year" billing window, e.g. "August 2026".
	BilledPeriod     string
	InvoiceName      string
	DueDate          string
	AccountReference string
	Amount           float64
	Items            []InvoiceItem
}

func (b *RequestBuilder) SendInvoice(req InvoiceRequest) (OperationRequest, error) {
	if strings.TrimSpace(req.ExternalReference) == "" {
		return OperationRequest{}, badInputError(ClientErrorBadInput, "core: external reference is required")
	}
	if strings.TrimSpace(req.BilledFullName) == "" {
		return OperationRequest{}, badInputError(ClientErrorBadInput, "core: billed full name is required")
	}
	if strings.TrimSpace(req.InvoiceName) == "" {
		return OperationRequest{}, badInputError(ClientErrorBadInput, "core: invoice name is required")
	}
	whole, err := wholeAmount(req.Amount)
	if err != nil {
		return OperationRequest{}, err
	}
	phone, err := NormalizePhone(req.BilledPhoneNumber)
	if err != nil {
		return OperationRequest{}, err
	}
	return OperationRequest{
		Path: pathSendInvoice,
		Payload: invoicePayload{
			ExternalReference: req.ExternalReference,
			BilledFullName:    req.BilledFullName,
			BilledPhoneNumber: phone,
			BilledPeriod:      req.BilledPeriod,
			InvoiceName:       req.InvoiceName,
			DueDate:           req.DueDate,
			AccountReference:  truncate(req.AccountReference, maxB2BAccountReferenceLen),
			Amount:            whole,
			InvoiceItems:      req.Items,
		},
	}, nil
}
