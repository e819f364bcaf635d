package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strconv"
	"testing"
	"time"

	"techshop/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(Config{
		TmnCode:     "TESTSHOP",
		HashSecret:  "super-secret-key",
		CallbackUrl: "https://shop.example.com/api/v1/orders/callback",
		BaseUrl:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
	})
	require.NoError(t, err)

	client.now = func() time.Time {
		return time.Date(2025, 6, 1, 10, 30, 0, 0, time.Local)
	}
	return client
}

func signValues(secret string, values url.Values) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(values.Encode()))
	return hex.EncodeToString(mac.Sum(nil))
}

func validCallback(secret string) url.Values {
	values := url.Values{}
	values.Set("vnp_TxnRef", "42")
	values.Set("vnp_Amount", "22000000")
	values.Set("vnp_ResponseCode", "00")
	values.Set("vnp_TransactionStatus", "00")
	values.Set("vnp_OrderInfo", "Thanh toan don hang #7")
	values.Set("vnp_TransactionNo", "14226112")
	values.Set("vnp_PayDate", "20250601103512")
	values.Set("vnp_CardType", "ATM")
	values.Set("vnp_BankTranNo", "VNP14226112")
	values.Set("vnp_BankCode", "NCB")
	values.Set("vnp_SecureHash", signValues(secret, values))
	return values
}

func TestNewClientRequiresFullConfig(t *testing.T) {
	cases := []Config{
		{HashSecret: "s", CallbackUrl: "c", BaseUrl: "b"},
		{TmnCode: "t", CallbackUrl: "c", BaseUrl: "b"},
		{TmnCode: "t", HashSecret: "s", BaseUrl: "b"},
		{TmnCode: "t", HashSecret: "s", CallbackUrl: "c"},
	}

	for _, cfg := range cases {
		_, err := NewClient(cfg)
		require.Error(t, err)
		assert.Equal(t, domain.KindUnconfigured, domain.KindOf(err))
	}
}

func TestBuildPaymentURL(t *testing.T) {
	client := testClient(t)

	rawURL, err := client.BuildPaymentURL(PaymentRequest{
		PaymentID:   42,
		Amount:      220_000,
		Description: "Thanh toan don hang #7",
		IPAddress:   "203.0.113.7",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	query := parsed.Query()

	// amount travels in the gateway's minor-unit convention
	assert.Equal(t, "22000000", query.Get("vnp_Amount"))
	assert.Equal(t, "42", query.Get("vnp_TxnRef"))
	assert.Equal(t, "VND", query.Get("vnp_CurrCode"))
	assert.Equal(t, "pay", query.Get("vnp_Command"))
	assert.Equal(t, "TESTSHOP", query.Get("vnp_TmnCode"))
	assert.Equal(t, "203.0.113.7", query.Get("vnp_IpAddr"))
	assert.Equal(t, "20250601103000", query.Get("vnp_CreateDate"))
	assert.Equal(t, "20250601104500", query.Get("vnp_ExpireDate"))

	// the signature must cover every parameter except itself
	signature := query.Get("vnp_SecureHash")
	require.NotEmpty(t, signature)
	query.Del("vnp_SecureHash")
	assert.Equal(t, signValues("super-secret-key", query), signature)
}

func TestBuildPaymentURLAmountBounds(t *testing.T) {
	client := testClient(t)

	for _, amount := range []int64{0, 4_999, 1_000_000_001} {
		_, err := client.BuildPaymentURL(PaymentRequest{
			PaymentID:   1,
			Amount:      amount,
			Description: "d",
			IPAddress:   "127.0.0.1",
		})
		require.Error(t, err, "amount %d", amount)
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	}

	for _, amount := range []int64{5_000, 1_000_000_000} {
		_, err := client.BuildPaymentURL(PaymentRequest{
			PaymentID:   1,
			Amount:      amount,
			Description: "d",
			IPAddress:   "127.0.0.1",
		})
		require.NoError(t, err, "amount %d", amount)
	}
}

func TestBuildPaymentURLBlankInputs(t *testing.T) {
	client := testClient(t)

	_, err := client.BuildPaymentURL(PaymentRequest{PaymentID: 1, Amount: 10_000, IPAddress: "127.0.0.1"})
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	_, err = client.BuildPaymentURL(PaymentRequest{PaymentID: 1, Amount: 10_000, Description: "d"})
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
}

func TestParseCallbackVerified(t *testing.T) {
	client := testClient(t)

	result, err := client.ParseCallback(validCallback("super-secret-key"))
	require.NoError(t, err)

	assert.True(t, result.Verified)
	assert.Equal(t, uint(42), result.PaymentID)
	assert.Equal(t, "14226112", result.TransactionID)
	assert.Equal(t, int64(220_000), result.Amount)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 35, 12, 0, time.Local), result.PaidAt)
}

// Signature tampering alone must flip the outcome, whatever the other fields
// say.
func TestParseCallbackTamperedSignatureRejected(t *testing.T) {
	client := testClient(t)

	values := validCallback("super-secret-key")
	values.Set("vnp_SecureHash", signValues("wrong-secret", values))

	result, err := client.ParseCallback(values)
	require.NoError(t, err)
	assert.False(t, result.Verified)
}

func TestParseCallbackTamperedAmountRejected(t *testing.T) {
	client := testClient(t)

	values := validCallback("super-secret-key")
	// signature was computed before the amount was altered
	values.Set("vnp_Amount", "100")

	result, err := client.ParseCallback(values)
	require.NoError(t, err)
	assert.False(t, result.Verified)
}

func TestParseCallbackFailureStatusRejected(t *testing.T) {
	client := testClient(t)

	for _, field := range []string{"vnp_ResponseCode", "vnp_TransactionStatus"} {
		values := validCallback("super-secret-key")
		values.Set(field, "24")
		values.Set("vnp_SecureHash", signValues("super-secret-key", withoutSignature(values)))

		result, err := client.ParseCallback(values)
		require.NoError(t, err)
		assert.False(t, result.Verified, "field %s", field)
	}
}

func TestParseCallbackMissingFields(t *testing.T) {
	client := testClient(t)

	for _, field := range requiredCallbackFields {
		values := validCallback("super-secret-key")
		values.Del(field)

		_, err := client.ParseCallback(values)
		require.Error(t, err, "field %s", field)
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	}
}

func TestParseCallbackIgnoresNonGatewayParams(t *testing.T) {
	client := testClient(t)

	values := validCallback("super-secret-key")
	values.Set("utm_source", "email")

	result, err := client.ParseCallback(values)
	require.NoError(t, err)
	assert.True(t, result.Verified)
}

func TestBuildThenParseRoundTrip(t *testing.T) {
	client := testClient(t)

	rawURL, err := client.BuildPaymentURL(PaymentRequest{
		PaymentID:   7,
		Amount:      150_000,
		Description: "round trip",
		IPAddress:   "10.0.0.1",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)

	// simulate the gateway echoing the request back with its own fields added
	values := parsed.Query()
	values.Set("vnp_ResponseCode", "00")
	values.Set("vnp_TransactionStatus", "00")
	values.Set("vnp_TransactionNo", "99001122")
	values.Set("vnp_PayDate", "20250601103300")
	values.Set("vnp_CardType", "QRCODE")
	values.Set("vnp_BankTranNo", "VNP99001122")
	values.Set("vnp_BankCode", "VCB")
	values.Del("vnp_SecureHash")
	values.Set("vnp_SecureHash", signValues("super-secret-key", values))

	result, err := client.ParseCallback(values)
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, uint(7), result.PaymentID)
	assert.Equal(t, int64(150_000), result.Amount)
	assert.Equal(t, strconv.Itoa(150_000*100), values.Get("vnp_Amount"))
}

func withoutSignature(values url.Values) url.Values {
	out := url.Values{}
	for key := range values {
		if key == "vnp_SecureHash" {
			continue
		}
		out.Set(key, values.Get(key))
	}
	return out
}
