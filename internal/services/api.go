// Package services maps each backend resource between its wire shape and the
// client models. Every method makes exactly one remote call unless noted.
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// API is the part of *apiclient.Client the services need
type API interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Post(ctx context.Context, path string, body any) ([]byte, error)
	Put(ctx context.Context, path string, body any) ([]byte, error)
}

func parse(body []byte, what string) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%s: response is not valid JSON", what)
	}
	return gjson.ParseBytes(body), nil
}

func decodeInto(raw string, v any, what string) error {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	return nil
}

// coalesce returns the first result that exists and is not null
func coalesce(results ...gjson.Result) gjson.Result {
	for _, r := range results {
		if r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

// decimalOf reads a number or numeric string; anything else is zero
func decimalOf(r gjson.Result) decimal.Decimal {
	switch r.Type {
	case gjson.Number, gjson.String:
		d, err := decimal.NewFromString(r.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

// arrayOf picks the list out of a response that is either a bare array or an
// object wrapping it under one of keys
func arrayOf(root gjson.Result, keys ...string) gjson.Result {
	if root.IsArray() {
		return root
	}
	for _, k := range keys {
		if v := root.Get(k); v.IsArray() {
			return v
		}
	}
	return gjson.Parse("[]")
}
