package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotReceipt is returned when the model decides the image is not a receipt.
var ErrNotReceipt = errors.New("ai: image is not a receipt")

// Receipt holds the fields extracted from a scanned receipt image.
type Receipt struct {
	Amount       decimal.Decimal
	Date         time.Time
	Description  string
	MerchantName string
	Category     string
}

const receiptPrompt = `Analyze this receipt image and extract the following information in JSON format:
      - Total amount (just the number)
      - Date (in ISO format)
      - Description or items purchased (brief summary)
      - Merchant/store name
      - Suggested category (one of: housing,transportation,groceries,utilities,entertainment,food,shopping,healthcare,education,personal,travel,insurance,gifts,bills,other-expense )

      Only respond with valid JSON in this exact format:
      {
        "amount": number,
        "date": "ISO date string",
        "description": "string",
        "merchantName": "string",
        "category": "string"
      }

      If it's not a receipt, return an empty object`

type receiptPayload struct {
	Amount       *float64 `json:"amount"`
	Date         string   `json:"date"`
	Description  string   `json:"description"`
	MerchantName string   `json:"merchantName"`
	Category     string   `json:"category"`
}

// ScanReceipt sends a receipt image to the model and parses the extracted
// fields. Returns ErrNotReceipt when the model reports the image is not a
// receipt.
func (c *Client) ScanReceipt(ctx context.Context, image []byte, mimeType string) (Receipt, error) {
	text, err := c.generate(ctx, receiptPrompt, image, mimeType)
	if err != nil {
		return Receipt{}, err
	}
	return parseReceiptJSON(text)
}

func parseReceiptJSON(raw string) (Receipt, error) {
	cleaned := extractJSON(cleanModelJSON(raw), '{', '}')

	var payload receiptPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return Receipt{}, fmt.Errorf("ai: parse receipt response: %w", err)
	}

	// An empty object means the model saw no receipt.
	if payload.Amount == nil && payload.Date == "" && payload.MerchantName == "" {
		return Receipt{}, ErrNotReceipt
	}
	if payload.Amount == nil {
		return Receipt{}, fmt.Errorf("ai: receipt response missing amount")
	}

	date, err := parseReceiptDate(payload.Date)
	if err != nil {
		return Receipt{}, err
	}

	return Receipt{
		Amount:       decimal.NewFromFloat(*payload.Amount),
		Date:         date,
		Description:  payload.Description,
		MerchantName: payload.MerchantName,
		Category:     payload.Category,
	}, nil
}

func parseReceiptDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("ai: receipt response missing date")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("ai: unparseable receipt date %q", s)
}
