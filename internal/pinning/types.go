package pinning

import (
	"strings"
	"time"

	"github.com/ipfs/go-cid"
)

const remoteTimestampLayout = "2006-01-02 15:04:05"

// PinnedFile is one piece of content the remote service retains.
type PinnedFile struct {
	ContentID string
	CreatedAt time.Time
}

// CIDVersion returns the CID version of the content id, or -1 when it does
// not parse.
func (f PinnedFile) CIDVersion() int {
	c, err := cid.Decode(f.ContentID)
	if err != nil {
		return -1
	}
	return int(c.Version())
}

// listResponse mirrors the list endpoint. Pointers distinguish a missing
// field from its zero value.
type listResponse struct {
	Success *bool        `json:"success"`
	Images  *[]pinRecord `json:"images"`
}

type pinRecord struct {
	IpfsHash  string `json:"ipfsHash"`
	CreatedAt string `json:"createdAt"`
}

// UploadAck is the decoded success body of an upload. Fields are optional;
// the service may acknowledge with an empty object.
type UploadAck struct {
	Success   bool   `json:"success"`
	IpfsHash  string `json:"ipfsHash"`
	Timestamp string `json:"timestamp"`
}

// ValidContentID reports whether id parses as a CID.
func ValidContentID(id string) bool {
	_, err := cid.Decode(strings.TrimSpace(id))
	return err == nil
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(remoteTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
