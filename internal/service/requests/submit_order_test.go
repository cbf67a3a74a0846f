package requests

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oif-solver/solver-svc/internal/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBody() map[string]interface{} {
	return map[string]interface{}{
		"order": map[string]interface{}{
			"user":          "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266",
			"nonce":         781,
			"originChainId": 31337,
			"expires":       4294967295,
			"fillDeadline":  4294967295,
			"localOracle":   "0x0165878a594ca255338adfa4d48449f69242eb8f",
			"inputs": [][]string{{
				"232173931049414487598928205764542517475099722052565410375093941968804628563",
				"100000000000000000000",
			}},
			"outputs": []map[string]interface{}{{
				"remoteOracle": "0xe7f1725e7734ce288f8367e1bb143e90bb3f0512",
				"remoteFiller": "0x5fbdb2315678afecb367f032d93f642f64180aa3",
				"chainId":      31338,
				"token":        "0x9fe46736679d2d9a65f0992f2272de9f3c7fa6e0",
				"amount":       "99000000000000000000",
				"recipient":    "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266",
			}},
		},
		"signature": "0x" + strings.Repeat("ab", 65),
	}
}

func submit(t *testing.T, body map[string]interface{}) (SubmitOrder, error) {
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	r := httptest.NewRequest("POST", "/orders", strings.NewReader(string(raw)))
	return NewSubmitOrder(r)
}

func TestNewSubmitOrder(t *testing.T) {
	req, err := submit(t, validBody())
	require.NoError(t, err)
	assert.Equal(t, uint64(781), req.Order.Nonce)
	require.Len(t, req.Order.Inputs, 1)
	assert.Equal(t, "100000000000000000000", req.Order.Inputs[0].Amount)
}

func TestNewSubmitOrderRejectsBadSignature(t *testing.T) {
	body := validBody()
	body["signature"] = "0xdeadbeef"
	_, err := submit(t, body)
	assert.Error(t, err)

	delete(body, "signature")
	_, err = submit(t, body)
	assert.Error(t, err)
}

func TestNewSubmitOrderRejectsMissingLegs(t *testing.T) {
	body := validBody()
	body["order"].(map[string]interface{})["inputs"] = [][]string{}
	_, err := submit(t, body)
	assert.Error(t, err)

	body = validBody()
	body["order"].(map[string]interface{})["outputs"] = []map[string]interface{}{}
	_, err = submit(t, body)
	assert.Error(t, err)
}

func TestNewSubmitOrderRejectsBadAmount(t *testing.T) {
	body := validBody()
	body["order"].(map[string]interface{})["outputs"].([]map[string]interface{})[0]["amount"] = "-5"
	_, err := submit(t, body)
	assert.Error(t, err)
}

func TestNewSubmitOrderRejectsMalformedJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/orders", strings.NewReader("{not json"))
	_, err := NewSubmitOrder(r)
	assert.Error(t, err)
}

func TestNewListOrdersStatusFilter(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders?status=filled", nil)
	req, err := NewListOrders(r)
	require.NoError(t, err)
	require.NotNil(t, req.Status)
	assert.Equal(t, data.StatusFilled, *req.Status)

	r = httptest.NewRequest("GET", "/orders", nil)
	req, err = NewListOrders(r)
	require.NoError(t, err)
	assert.Nil(t, req.Status)

	r = httptest.NewRequest("GET", "/orders?status=bogus", nil)
	_, err = NewListOrders(r)
	assert.Error(t, err)
}
