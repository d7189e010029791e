package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// accountLabelPrefix prefixes the per-run account label used as report key.
const accountLabelPrefix = "account_"

// UploadSummary is what the upload collaborator returns for one account.
type UploadSummary struct {
	// Uploaded is the number of worksheets written.
	Uploaded int `json:"uploaded"`

	// Created lists worksheets that did not exist remotely.
	Created []string `json:"created,omitempty"`

	// Updated lists worksheets that were overwritten.
	Updated []string `json:"updated,omitempty"`

	// Failed maps worksheet names to the error the remote returned.
	Failed map[string]string `json:"failed,omitempty"`
}

// AccountResult is the report entry of a single account.
type AccountResult struct {
	// Account is the remote account locator.
	Account string `json:"account"`

	// Status is SUCCESS when the upload collaborator ran.
	Status AccountStatus `json:"status"`

	// Summary is the upload collaborator's result. Nil when the task failed
	// before or during the upload call.
	Summary *UploadSummary `json:"summary,omitempty"`

	// Error holds the failure message for FAILED entries.
	Error string `json:"error,omitempty"`
}

// UploadReport maps account labels (account_<index>) to results.
type UploadReport map[string]AccountResult

// AccountLabel returns the report key of the account at index.
func AccountLabel(index int) string {
	return accountLabelPrefix + strconv.Itoa(index)
}

// Keys returns the report keys ordered by account index.
func (r UploadReport) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return labelIndex(keys[i]) < labelIndex(keys[j])
	})
	return keys
}

// Failed returns the number of FAILED entries.
func (r UploadReport) Failed() int {
	n := 0
	for _, res := range r {
		if res.Status == AccountStatusFailed {
			n++
		}
	}
	return n
}

// String renders the report in key order, one entry per line.
func (r UploadReport) String() string {
	var b strings.Builder
	for _, k := range r.Keys() {
		res := r[k]
		fmt.Fprintf(&b, "%s: %s %s", k, res.Account, res.Status)
		if res.Summary != nil {
			fmt.Fprintf(&b, " uploaded=%d", res.Summary.Uploaded)
		}
		if res.Error != "" {
			fmt.Fprintf(&b, " error=%q", res.Error)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// labelIndex parses the index out of an account label. Unknown keys sort last.
func labelIndex(label string) int {
	i, err := strconv.Atoi(strings.TrimPrefix(label, accountLabelPrefix))
	if err != nil || !strings.HasPrefix(label, accountLabelPrefix) {
		return int(^uint(0) >> 1)
	}
	return i
}
