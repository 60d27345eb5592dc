package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"storefront-backend/internal/domain"
)

// MaxMetadataValue is the gateway's limit on a single metadata value.
const MaxMetadataValue = 500

const (
	keyUserID          = "userId"
	keyUserEmail       = "userEmail"
	keyUserName        = "userName"
	keyShippingAddress = "shippingAddress"
	keyItems           = "items"
	keyTotalItems      = "totalItems"
	keyTotalAmount     = "totalAmount"
)

var ErrMissingMetadata = errors.New("missing checkout session metadata")

// MetadataLine is one purchased line as locked in at session creation.
type MetadataLine struct {
	ProductID string       `json:"product"`
	Quantity  int          `json:"quantity"`
	Price     domain.Money `json:"price"`
}

// CheckoutMetadata is what the service attaches to a checkout session and
// reads back during reconciliation.
type CheckoutMetadata struct {
	Buyer           domain.Buyer
	ShippingAddress domain.ShippingAddress
	Lines           []MetadataLine
	Total           domain.Money
}

func (m CheckoutMetadata) Encode() (map[string]string, error) {
	addr, err := json.Marshal(m.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("encode shipping address: %w", err)
	}
	lines, err := json.Marshal(m.Lines)
	if err != nil {
		return nil, fmt.Errorf("encode line items: %w", err)
	}

	md := map[string]string{
		keyUserID:      m.Buyer.ID,
		keyUserEmail:   m.Buyer.Email,
		keyUserName:    m.Buyer.Name,
		keyTotalItems:  strconv.Itoa(len(m.Lines)),
		keyTotalAmount: m.Total.String(),
	}
	putChunked(md, keyShippingAddress, string(addr))
	putChunked(md, keyItems, string(lines))
	return md, nil
}

func DecodeMetadata(md map[string]string) (*CheckoutMetadata, error) {
	if len(md) == 0 {
		return nil, ErrMissingMetadata
	}
	addrJSON, ok := getChunked(md, keyShippingAddress)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingMetadata, keyShippingAddress)
	}
	linesJSON, ok := getChunked(md, keyItems)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingMetadata, keyItems)
	}
	if md[keyUserEmail] == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingMetadata, keyUserEmail)
	}

	out := &CheckoutMetadata{
		Buyer: domain.Buyer{
			ID:    md[keyUserID],
			Email: md[keyUserEmail],
			Name:  md[keyUserName],
		},
	}
	if err := json.Unmarshal([]byte(addrJSON), &out.ShippingAddress); err != nil {
		return nil, fmt.Errorf("%w: shipping address: %v", ErrMissingMetadata, err)
	}
	if err := json.Unmarshal([]byte(linesJSON), &out.Lines); err != nil {
		return nil, fmt.Errorf("%w: line items: %v", ErrMissingMetadata, err)
	}
	if len(out.Lines) == 0 {
		return nil, fmt.Errorf("%w: no line items", ErrMissingMetadata)
	}
	if total, ok := md[keyTotalAmount]; ok && total != "" {
		amount, err := domain.ParseMoney(total)
		if err != nil {
			return nil, fmt.Errorf("%w: total amount: %v", ErrMissingMetadata, err)
		}
		out.Total = amount
	}
	return out, nil
}

// putChunked stores value under key, key_1, key_2, ... so that no single
// value exceeds MaxMetadataValue bytes. Chunks end on rune boundaries so
// every part stays valid UTF-8.
func putChunked(md map[string]string, key, value string) {
	for i := 0; ; i++ {
		k := key
		if i > 0 {
			k = key + "_" + strconv.Itoa(i)
		}
		if len(value) <= MaxMetadataValue {
			md[k] = value
			return
		}
		cut := MaxMetadataValue
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		md[k] = value[:cut]
		value = value[cut:]
	}
}

func getChunked(md map[string]string, key string) (string, bool) {
	value, ok := md[key]
	if !ok || value == "" {
		return "", false
	}
	for i := 1; ; i++ {
		part, ok := md[key+"_"+strconv.Itoa(i)]
		if !ok {
			return value, true
		}
		value += part
	}
}
