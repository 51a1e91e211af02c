package http

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/cart"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errBadProductID = errors.New("invalid product id")

type addToCartRequest struct {
	ProductID jsoniter.RawMessage `json:"product_id"`
	Quantity  jsoniter.RawMessage `json:"quantity"`
}

type updateItemRequest struct {
	Quantity jsoniter.RawMessage `json:"quantity"`
}

// rawQuantity accepts a JSON number or a numeric string. Any other JSON value
// is passed through verbatim so validation rejects it as non-numeric.
func rawQuantity(raw jsoniter.RawMessage) cart.RawQuantity {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if strings.TrimSpace(s) == "" {
				// Present but blank must not read as absent.
				return cart.RawQuantity(raw)
			}
			return cart.RawQuantity(s)
		}
	}
	return cart.RawQuantity(raw)
}

func parseProductID(raw jsoniter.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errBadProductID
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, errBadProductID
		}
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadProductID
	}
	return id, nil
}

func parseItemID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
