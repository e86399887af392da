// internal/webutil/request.go
package webutil

import (
	"encoding/json"
	"log"
	"net/http"

	"go_5_flash_rounds/internal/model"
)

// DecodeJSONBody はリクエストボディをデコードします
func DecodeJSONBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return model.ErrInvalidInput
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(dst)
	if err != nil {
		log.Printf("Error decoding JSON body: %v", err)
		return model.ErrInvalidInput
	}
	return nil
}
