package worksheet

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tdambrin/sf-push/domain"
)

// MetadataSuffix identifies metadata descriptor files.
const MetadataSuffix = "_metadata.json"

// contentFilenameReplacer replaces the characters the remote service swaps
// for underscores when it exports content files.
var contentFilenameReplacer = strings.NewReplacer(" ", "_", ":", "_", "/", "_")

// ContentFilename returns the name of the content file paired with a
// worksheet: name plus ".py" for python or ".sql" otherwise, with every
// space, colon and slash of the result replaced by an underscore.
func ContentFilename(name string, contentType domain.ContentType) string {
	return contentFilenameReplacer.Replace(name + "." + contentType.Extension())
}

// IsMetadataFile reports whether name is a metadata descriptor.
func IsMetadataFile(name string) bool {
	return strings.HasSuffix(name, MetadataSuffix)
}

// descriptor is the JSON body of a metadata file. Pointers distinguish a
// missing key from an empty value.
type descriptor struct {
	ID          *string `json:"_id"`
	Name        *string `json:"name"`
	FolderID    *string `json:"folder_id"`
	FolderName  *string `json:"folder_name"`
	ContentType *string `json:"content_type"`
}

// parseDescriptor decodes a metadata blob into a worksheet without content.
// _id may be null for worksheets that were never created remotely, but the
// key itself must be present like the other required fields.
func parseDescriptor(data []byte) (domain.Worksheet, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Worksheet{}, err
	}

	for _, key := range []string{"_id", "name", "folder_id", "folder_name"} {
		if _, ok := raw[key]; !ok {
			return domain.Worksheet{}, fmt.Errorf("missing required field %q", key)
		}
	}

	var d descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return domain.Worksheet{}, err
	}

	switch {
	case d.Name == nil:
		return domain.Worksheet{}, fmt.Errorf("field %q must be a string", "name")
	case d.FolderID == nil:
		return domain.Worksheet{}, fmt.Errorf("field %q must be a string", "folder_id")
	case d.FolderName == nil:
		return domain.Worksheet{}, fmt.Errorf("field %q must be a string", "folder_name")
	}

	ws := domain.Worksheet{
		Name:        *d.Name,
		FolderID:    *d.FolderID,
		FolderName:  *d.FolderName,
		ContentType: domain.ContentTypeSQL,
	}
	if d.ID != nil {
		ws.ID = *d.ID
	}
	if d.ContentType != nil && *d.ContentType != "" {
		ws.ContentType = domain.ContentType(*d.ContentType)
	}

	return ws, nil
}
