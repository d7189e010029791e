package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tdambrin/sf-push/domain"
)

// Format renders r as a single-line JSON object. Keys appear in account
// index order, so account_10 follows account_2.
func Format(r domain.UploadReport) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("failed to encode report key %q: %w", key, err)
		}
		v, err := json.Marshal(r[key])
		if err != nil {
			return nil, fmt.Errorf("failed to encode report entry %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
