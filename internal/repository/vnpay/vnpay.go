// Package vnpay builds signed redirect URLs for the VNPay hosted payment
// page and verifies the signed callback VNPay sends back. The callback check
// is the one place a forged request must be provably rejected.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"time"

	"techshop/domain"
)

const (
	version   = "2.1.0"
	orderType = "other"
	currency  = "VND"
	locale    = "vn"

	// Application-level fraud/limit guard, not imposed by the gateway.
	minAmount = 5_000
	maxAmount = 1_000_000_000

	dateLayout  = "20060102150405"
	expiryDelta = 15 * time.Minute

	codeSuccess = "00"
)

type Config struct {
	TmnCode     string
	HashSecret  string
	CallbackUrl string
	BaseUrl     string
}

type Client struct {
	cfg Config

	// now is swappable in tests
	now func() time.Time
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.TmnCode == "" || cfg.HashSecret == "" || cfg.CallbackUrl == "" || cfg.BaseUrl == "" {
		return nil, domain.NewError(domain.KindUnconfigured, "vnpay merchant code, secret, callback url and base url are all required")
	}

	return &Client{cfg: cfg, now: time.Now}, nil
}

type PaymentRequest struct {
	PaymentID   uint
	Amount      int64 // whole VND
	Description string
	IPAddress   string
}

// BuildPaymentURL returns the hosted-payment-page URL for the request. The
// amount is transmitted in the gateway's minor-unit convention (x100) and the
// link expires 15 minutes after issue.
func (c *Client) BuildPaymentURL(req PaymentRequest) (string, error) {
	if req.Amount < minAmount || req.Amount > maxAmount {
		return "", domain.NewError(domain.KindInvalidInput,
			"payment amount must be between 5,000 and 1,000,000,000 VND")
	}
	if strings.TrimSpace(req.Description) == "" {
		return "", domain.NewError(domain.KindInvalidInput, "payment description is required")
	}
	if strings.TrimSpace(req.IPAddress) == "" {
		return "", domain.NewError(domain.KindInvalidInput, "client ip address is required")
	}

	createdAt := c.now()

	params := url.Values{}
	params.Set("vnp_Version", version)
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", c.cfg.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(req.Amount*100, 10))
	params.Set("vnp_CreateDate", createdAt.Format(dateLayout))
	params.Set("vnp_CurrCode", currency)
	params.Set("vnp_IpAddr", req.IPAddress)
	params.Set("vnp_Locale", locale)
	params.Set("vnp_OrderInfo", strings.TrimSpace(req.Description))
	params.Set("vnp_OrderType", orderType)
	params.Set("vnp_ReturnUrl", c.cfg.CallbackUrl)
	params.Set("vnp_TxnRef", strconv.FormatUint(uint64(req.PaymentID), 10))
	params.Set("vnp_ExpireDate", createdAt.Add(expiryDelta).Format(dateLayout))

	query := params.Encode()
	return c.cfg.BaseUrl + "?" + query + "&vnp_SecureHash=" + c.sign(query), nil
}

type CallbackResult struct {
	PaymentID         uint
	TransactionID     string
	ResponseCode      string
	TransactionStatus string
	BankCode          string
	BankTransactionID string
	CardType          string
	Description       string
	Amount            int64
	PaidAt            time.Time

	// Verified is true only when the recomputed signature matches the
	// supplied one and both gateway status codes indicate success.
	Verified bool
}

var requiredCallbackFields = []string{
	"vnp_TxnRef",
	"vnp_ResponseCode",
	"vnp_SecureHash",
	"vnp_TransactionStatus",
	"vnp_OrderInfo",
	"vnp_TransactionNo",
	"vnp_PayDate",
	"vnp_CardType",
	"vnp_BankTranNo",
	"vnp_BankCode",
}

// ParseCallback validates the gateway's redirect-back query parameters. A
// result with Verified == false must never cause a payment to be marked paid.
func (c *Client) ParseCallback(values url.Values) (CallbackResult, error) {
	for _, field := range requiredCallbackFields {
		if values.Get(field) == "" {
			return CallbackResult{}, domain.NewError(domain.KindInvalidInput,
				"incomplete gateway callback: missing "+field)
		}
	}

	paymentID, err := strconv.ParseUint(values.Get("vnp_TxnRef"), 10, 64)
	if err != nil {
		return CallbackResult{}, domain.NewError(domain.KindInvalidInput, "invalid transaction reference")
	}

	// Rebuild the canonical parameter set: every vnp_ field except the
	// signature itself, sorted by key.
	canonical := url.Values{}
	for key := range values {
		if key == "vnp_SecureHash" || !strings.HasPrefix(key, "vnp_") {
			continue
		}
		canonical.Set(key, values.Get(key))
	}

	signatureOK := c.verify(canonical.Encode(), values.Get("vnp_SecureHash"))

	amount, _ := strconv.ParseInt(values.Get("vnp_Amount"), 10, 64)
	paidAt, _ := time.ParseInLocation(dateLayout, values.Get("vnp_PayDate"), time.Local)

	result := CallbackResult{
		PaymentID:         uint(paymentID),
		TransactionID:     values.Get("vnp_TransactionNo"),
		ResponseCode:      values.Get("vnp_ResponseCode"),
		TransactionStatus: values.Get("vnp_TransactionStatus"),
		BankCode:          values.Get("vnp_BankCode"),
		BankTransactionID: values.Get("vnp_BankTranNo"),
		CardType:          values.Get("vnp_CardType"),
		Description:       values.Get("vnp_OrderInfo"),
		Amount:            amount / 100,
		PaidAt:            paidAt,
		Verified: signatureOK &&
			values.Get("vnp_ResponseCode") == codeSuccess &&
			values.Get("vnp_TransactionStatus") == codeSuccess,
	}

	return result, nil
}

func (c *Client) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) verify(data, supplied string) bool {
	expected := c.sign(data)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(supplied)))
}
