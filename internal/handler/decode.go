package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/josh-kwaku/fundledger/internal/domain"
)

const maxBodyBytes = 64 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) *AppError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return ErrInvalidRequest
	}
	return nil
}

// parseAmountField reads an amount sent either as a JSON number or as a
// numeric string. present is false when the field was omitted or null.
func parseAmountField(raw json.RawMessage) (amount int64, present bool, err error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false, nil
	}
	if unquoted, uerr := strconv.Unquote(s); uerr == nil {
		s = unquoted
	}
	amount, err = domain.ParseAmount(s)
	return amount, true, err
}
