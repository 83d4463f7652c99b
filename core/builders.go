package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	pathAccountBalance    = "/mpesa/accountbalance/v1/query"
	pathC2BRegisterURLs   = "/mpesa/c2b/v1/registerurl"
	pathC2BSimulate       = "/mpesa/c2b/v1/simulate"
	pathSTKPush           = "/mpesa/stkpush/v1/processrequest"
	pathSTKPushQuery      = "/mpesa/stkpushquery/v1/query"
	pathB2CPayment        = "/mpesa/b2c/v1/paymentrequest"
	pathB2CValidated      = "/mpesa/b2cvalidate/v2/paymentrequest"
	pathB2BPayment        = "/mpesa/b2b/v1/paymentrequest"
	pathTransactionStatus = "/mpesa/transactionstatus/v1/query"
	pathReversal          = "/mpesa/reversal/v1/request"
	pathDynamicQR         = "/mpesa/qrcode/v1/generate"
	pathTaxRemittance     = "/mpesa/b2b/v1/remittax"
	pathBillManagerOptIn  = "/v1/billmanager-invoice/optin"
	pathSendInvoice       = "/v1/billmanager-invoice/single-invoicing"
)

// taxAuthorityShortcode is the revenue authority's fixed PartyB for tax
// remittance.
const taxAuthorityShortcode = "572572"

// RequestBuilder assembles per-operation payloads. It owns no mutable
// state; every build re-derives time-dependent and signed fields.
type RequestBuilder struct {
	config Config
	keys   KeyProvider
	now    Clock
	newID  func() string
}

func NewRequestBuilder(cfg Config, keys KeyProvider, now Clock) *RequestBuilder {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &RequestBuilder{
		config: cfg,
		keys:   keys,
		now:    now,
		newID:  func() string { return uuid.NewString() },
	}
}

func (b *RequestBuilder) securityCredential() (string, error) {
	if b.keys == nil {
		return "", keyLoadError("core: key provider is not configured", nil)
	}
	material, err := b.keys.PublicKey(b.config.Environment)
	if err != nil {
		return "", err
	}
	return SecurityCredential(b.config.InitiatorPassword, material)
}

func validateCallbackURLs(urls ...string) error {
	for _, raw := range urls {
		if err := ValidateCallbackURL(raw); err != nil {
			return err
		}
	}
	return nil
}

// --- account balance ---

type accountBalancePayload struct {
	Initiator          string `json:"Initiator"`
	SecurityCredential string `json:"SecurityCredential"`
	CommandID          string `json:"CommandID"`
	PartyA             string `json:"PartyA"`
	IdentifierType     string `json:"IdentifierType"`
	Remarks            string `json:"Remarks"`
	QueueTimeOutURL    string `json:"QueueTimeOutURL"`
	ResultURL          string `json:"ResultURL"`
}

func (b *RequestBuilder) AccountBalance(remarks string) (OperationRequest, error) {
	if err := validateCallbackURLs(b.config.BalanceResultURL, b.config.BalanceTimeoutURL); err != nil {
		return OperationRequest{}, err
	}
	credential, err := b.securityCredential()
	if err != nil {
		return OperationRequest{}, err
	}
	return OperationRequest{
		Path: pathAccountBalance,
		Payload: accountBalancePayload{
			Initiator:          b.config.InitiatorName,
			SecurityCredential: credential,
			CommandID:          "AccountBalance",
			PartyA:             b.config.Shortcode,
			IdentifierType:     "4",
			Remarks:            truncate(remarks, maxRemarksLen),
			QueueTimeOutURL:    b.config.BalanceTimeoutURL,
			ResultURL:          b.config.BalanceResultURL,
		},
	}, nil
}

// --- c2b ---

type registerC2BURLsPayload struct {
	ShortCode       string `json:"ShortCode"`
	ResponseType    string `json:"ResponseType"`
	ConfirmationURL string `json:"ConfirmationURL"`
	ValidationURL   string `json:"ValidationURL"`
}

func (b *RequestBuilder) RegisterC2BURLs() (OperationRequest, error) {
	if err := validateCallbackURLs(b.config.C2BConfirmationURL, b.config.C2BValidationURL); err != nil {
		return OperationRequest{}, err
	}
	return OperationRequest{
		Path: pathC2BRegisterURLs,
		Payload: registerC2BURLsPayload{
			ShortCode:       b.config.Shortcode,
			ResponseType:    "Completed",
			ConfirmationURL: b.config.C2BConfirmationURL,
			ValidationURL:   b.config.C2BValidationURL,
		},
	}, nil
}

type simulateC2BPayload struct {
	ShortCode     string `json:"ShortCode"`
	CommandID     string `json:"CommandID"`
	Amount        int64  `json:"Amount"`
	Msisdn        string `json:"Msisdn"`
	BillRefNumber string `json:"BillRefNumber"`
}

func (b *RequestBuilder) SimulateC2B(amount float64, phoneNumber, billReference string) (OperationRequest, error) {
	whole, err := wholeAmount(amount)
	if err != nil {
		return OperationRequest{}, err
	}
	msisdn, err := NormalizePhone(phoneNumber)
	if err != nil {
		return OperationRequest{}, err
	}
	return OperationRequest{
		Path: pathC2BSimulate,
		Payload: simulateC2BPayload{
			ShortCode:     b.config.Shortcode,
			CommandID:     "CustomerPayBillOnline",
			Amount:        whole,
			Msisdn:        msisdn,
			BillRefNumber: truncate(billReference, maxAccountReferenceLen),
		},
	}, nil
}

// --- stk push ---

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type STKPushRequest struct {
	Amount           float64
	PhoneNumber      string
	AccountReference string
	Description      string
}

func (b *RequestBuilder) STKPush(req STKPushRequest) (OperationRequest, error) {
	if err := ValidateCallbackURL(b.config.STKCallbackURL); err != nil {
		return OperationRequest{}, err
	}
	whole, err := wholeAmount(req.Amount)
	if err != nil {
		return OperationRequest{}, err
	}
	msisdn, err := NormalizePhone(req.PhoneNumber)
	if err != nil {
		return OperationRequest{}, err
	}
	timestamp := SigningTimestamp(b.now())
	password, err := STKPassword(b.config.Shortcode, b.config.Passkey, timestamp)
	if err != nil {
		return OperationRequest{}, err
	}
	return OperationRequest{
		Path: pathSTKPush,
		Payload: stkPushPayload{
			BusinessShortCode: b.config.Shortcode,
			Password:          password,
			Timestamp:         timestamp,
			TransactionType:   "CustomerPayBillOnline",
			Amount:            whole,
			PartyA:            msisdn,
			PartyB:            b.config.Shortcode,
			PhoneNumber:       msisdn,
			CallBackURL:       b.config.STKCallbackURL,
			AccountReference:  truncate(req.AccountReference, maxAccountReferenceLen),
			TransactionDesc:   truncate(req.Description, maxTransactionDescLen),
		},
	}, nil
}

type stkPushStatusPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

func (b *RequestBuilder) STKPushStatus(checkoutRequestID string) (OperationRequest, error) {
	if strings.TrimSpace(checkoutRequestID) == "" {
		return OperationRequest{}, badInputError(ClientErrorBadInput, "core: checkout request id is required")
	}
	timestamp := SigningTimestamp(b.now())
	password, err := STKPassword(b.config.Shortcode, b.config.Passkey, timestamp)
	if err != nil {
		return OperationRequest{}, err
	}
	return OperationRequest{
		Path: pathSTKPushQuery,
		Payload: stkPushStatusPayload{
			BusinessShortCode: b.config.Shortcode,
			Password:          password,
			Timestamp:         timestamp,
			CheckoutRequestID: checkoutRequestID,
		},
	}, nil
}

// --- b2c ---

var b2cCommands = map[string]struct{}{
	"SalaryPayment":    {},
	"BusinessPayment":  {},
	"PromotionPayment": {},
}

type b2cPayload struct {
	OriginatorConversationID string `json:"OriginatorConversationID"`
	InitiatorName            string `json:"InitiatorName"`
	SecurityCredential       string `json:"SecurityCredential"`
	CommandID                string `json:"CommandID"`
	Amount                   int64  `json:"Amount"`
	PartyA                   string `json:"PartyA"`
	PartyB                   string `json:"PartyB"`
	Remarks                  string `json:"Remarks"`
	QueueTimeOutURL          string `json:"QueueTimeOutURL"`
	ResultURL                string `json:"ResultURL"`
	Occasion                 string `json:"Occasion"`
}

type b2cValidatedPayload struct {
	b2cPayload
	IDType   string `json:"IDType"`
	IDNumber string `json:"IDNumber"`
}

type B2CRequest struct {
	CommandID   string
	Amount      float64
	PhoneNumber string
	Remarks     string
	Occasion    string
}

func (b *RequestBuilder) b2cPayload(req B2CRequest) (b2cPayload, error) {
	if _, ok := b2cCommands[req.CommandID]; !ok {
		return b2cPayload{}, badInputError(ClientErrorBadInput,
			fmt.Sprintf("core: unknown b2c command %q", req.CommandID))
	}
	if err := validateCallbackURLs(b.config.B2CResultURL, b.config.B2CTimeoutURL); err != nil {
		return b2cPayload{}, err
	}
	whole, err := wholeAmount(req.Amount)
	if err != nil {
		return b2cPayload{}, err
	}
	msisdn, err := NormalizePhone(req.PhoneNumber)
	if err != nil {
		return b2cPayload{}, err
	}
	credential, err := b.securityCredential()
	if err != nil {
		return b2cPayload{}, err
	}
	return b2cPayload{
		OriginatorConversationID: b.newID(),
		InitiatorName:            b.config.InitiatorName,
		SecurityCredential:       credential,
		CommandID:                req.CommandID,
		Amount:                   whole,
		PartyA:                   b.config.Shortcode,
		PartyB:                   msisdn,
		Remarks:                  truncate(req.Remarks, maxRemarksLen),
		QueueTimeOutURL:          b.config.B2CTimeoutURL,
		ResultURL:                b.config.B2CResultURL,
		Occasion:                 truncate(req.Occasion, maxOccasionLen),
	}, nil
}

func (b *RequestBuilder) B2CPayment(req B2CRequest) (OperationRequest, error) {
	payload, err := b.b2cPayload(req)
	if err != nil {
		return OperationRequest{}, err
	}
	return OperationRequest{Path: pathB2CPayment, Payload: payload}, nil
}

// B2CPaymentWithValidation is the ID-validated disbursement variant: the
// gateway cross-checks the recipient's registered identity document before
// paying out.
func (b *RequestBuilder) B2CPaymentWithValidation(req B2CRequest, idType, idNumber string) (OperationRequest, error) {
	if strings.TrimSpace(idType) == "" || strings.TrimSpace(idNumber) == "" {
		return OperationRequest{}, badInputError(ClientErrorBadInput,
			"core: id type and id number are required for validated b2c")
	}
	payload, err := b.b2cPayload(req)
	if err != nil {
		return OperationRequest{}, err
	}
	return OperationRequest{
		Path: pathB2CValidated,
		Payload: b2cValidatedPayload{
			b2cPayload: payload,
			IDType:     idType,
			IDNumber:   idNumber,
		},
	}, nil
}

// --- b2b ---

type b2bPayload struct {
	Initiator              string `json:"Initiator"`
	SecurityCredential     string `json:"SecurityCredential"`
	CommandID              string `json:"CommandID"`
	SenderIdentifierType   string `json:"SenderIdentifierType"`
	RecieverIdentifierType string `json:"RecieverIdentifierType"`
	Amount                 int64  `json:"Amount"`
	PartyA                 string `json:"PartyA"`
	PartyB                 string `json:"PartyB"`
	AccountReference       string `json:"AccountReference"`
	Requester              string `json:"Requester,omitempty"`
	Remarks                string `json:"Remarks"`
	QueueTimeOutURL        string `json:"QueueTimeOutURL"`
	ResultURL              string `json:"ResultURL"`
}

type B2BRequest struct {
	Amount            float64
	ReceiverShortcode string
	AccountReference  string
	Remarks           string
	// Requester is the optional consumer msisdn initiating the payment.
	Requester string
}

func (b *RequestBuilder) b2bPayload(req B2BRequest, commandID, receiverIdentifierType string) (b2bPayload, error) {
	if strings.TrimSpace(req.ReceiverShortcode) == "" {
		return b2bPayload{}, badInputError(ClientErrorBadInput, "core: receiver shortcode is required")
	}
	if err := validateCallbackURLs(b.config.B2BResultURL, b.config.B2BTimeoutURL); err != nil {
		return b2bPayload{}, err
	}
	whole, err := wholeAmount(req.Amount)
	if err != nil {
		return b2bPayload{}, err
	}
	requester := ""
	if strings.TrimSpace(req.Requester) != "" {
		requester, err = NormalizePhone(req.Requester)
		if err != nil {
			return b2bPayload{}, err
		}
	}
	credential, err := b.securityCredential()
	if err != nil {
		return b2bPayload{}, err
	}
	return b2bPayload{
		Initiator:              b.config.InitiatorName,
		SecurityCredential:     credential,
		CommandID:              commandID,
		SenderIdentifierType:   "4",
		RecieverIdentifierType: receiverIdentifierType,
		Amount:                 whole,
		PartyA:                 b.config.Shortcode,
		PartyB:                 req.ReceiverShortcode,
		AccountReference:       truncate(req.AccountReference, maxB2BAccountReferenceLen),
		Requester:              requester,
		Remarks:                truncate(req.Remarks, maxRemarksLen),
		QueueTimeOutURL:        b.config.B2BTimeoutURL,
		ResultURL:              b.config.B2BResultURL,
	}, nil
}

func (b *RequestBuilder) B2BPayBill(req B2BRequest) (OperationRequest, error) {
	payload, err := b.b2bPayload(req, "BusinessPayBill", "4")
	if err != nil {
		return OperationRequest{}, err
	}
	return OperationRequest{Path: pathB2BPayment, Payload: payload}, nil
}

func (b *RequestBuilder) B2BBuyGoods(req B2BRequest) (OperationRequest, error) {
	payload, err := b.b2bPayload(req, "BusinessBuyGoods", "2")
	if err != nil {
		return OperationRequest{}, err
	}
	return OperationRequest{Path: pathB2BPayment, Payload: payload}, nil
}

// --- transaction status ---

type transactionStatusPayload struct {
	Initiator          string `json:"Initiator"`
	SecurityCredential string `json:"SecurityCredential"`
	CommandID          string `json:"CommandID"`
	TransactionID      string `json:"TransactionID"`
	PartyA             string `json:"PartyA"`
	IdentifierType     string `json:"IdentifierType"`
	ResultURL          string `json:"ResultURL"`
	QueueTimeOutURL    string `json:"QueueTimeOutURL"`
	Remarks            string `json:"Remarks"`
	Occasion           string `json:"Occasion"`
}

type TransactionStatusRequest struct {
	TransactionID string
	// IdentifierType names the party kind: msisdn, till_number or shortcode.
	IdentifierType string
	Remarks        string
	Occasion       string
}

func (b *RequestBuilder) TransactionStatus(req TransactionStatusRequest) (OperationRequest, error) {
	if strings.TrimSpace(req.TransactionID) == "" {
		return OperationRequest{}, badInputError(ClientErrorBadInput, "core: transaction id is required")
	}
	code, err := IdentifierCode(req.IdentifierType)
	if err != nil {
		return OperationRequest{}, err
	}
	if err := validateCallbackURLs(b.config.StatusResultURL, b.config.StatusTimeoutURL); err != nil {
		return OperationRequest{}, err
	}
	credential, err := b.securityCredential()
	if err != nil {
		return OperationRequest{}, err
	}
	return OperationRequest{
		Path: pathTransactionStatus,
		Payload: transactionStatusPayload{
			Initiator:          b.config.InitiatorName,
			SecurityCredential: credential,
			CommandID:          "TransactionStatusQuery",
			TransactionID:      req.TransactionID,
			PartyA:             b.config.Shortcode,
			IdentifierType:     strconv.Itoa(code),
			ResultURL:          b.config.StatusResultURL,
			QueueTimeOutURL:    b.config.StatusTimeoutURL,
			Remarks:            truncate(req.Remarks, maxRemarksLen),
			Occasion:           truncate(req.Occasion, maxOccasionLen),
		},
	}, nil
}

// --- reversal ---

type reversalPayload struct {
	Initiator              string `json:"Initiator"`
	SecurityCredential     string `json:"SecurityCredential"`
	CommandID              string `json:"CommandID"`
	TransactionID          string `json:"TransactionID"`
	Amount                 int64  `json:"Amount"`
	ReceiverParty          string `json:"ReceiverParty"`
	RecieverIdentifierType string `json:"RecieverIdentifierType"`
	ResultURL              string `json:"ResultURL"`
	QueueTimeOutURL        string `json:"QueueTimeOutURL"`
	Remarks                string `json:"Remarks"`
	Occasion               string `json:"Occasion"`
}

type ReversalRequest struct {
	TransactionID string
	Amount        float64
	Remarks       string
	Occasion      string
}

func (b *RequestBuilder) Reversal(req ReversalRequest) (OperationRequest, error) {
	if strings.TrimSpace(req.TransactionID) == "" {
		return OperationRequest{}, badInputError(ClientErrorBadInput, "core: transaction id is required")
	}
	whole, err := wholeAmount(req.Amount)
	if err != nil {
		return OperationRequest{}, err
	}
	if err := validateCallbackURLs(b.config.ReversalResultURL, b.config.ReversalTimeoutURL); err != nil {
		return OperationRequest{}, err
	}
	credential, err := b.securityCredential()
	if err != nil {
		return OperationRequest{}, err
	}
	return OperationRequest{
		Path: pathReversal,
		Payload: reversalPayload{
			Initiator:          b.config.InitiatorName,
			SecurityCredential: credential,
			CommandID:          "TransactionReversal",
			TransactionID:      req.TransactionID,
			Amount:             whole,
			ReceiverParty:      b.config.Shortcode,
			// 11 is the gateway's organization identifier for reversals.
			RecieverIdentifierType: "11",
			ResultURL:              b.config.ReversalResultURL,
			QueueTimeOutURL:        b.config.ReversalTimeoutURL,
			Remarks:                truncate(req.Remarks, maxRemarksLen),
			Occasion:               truncate(req.Occasion, maxOccasionLen),
		},
	}, nil
}
