package pipeline

import (
	"net/url"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// DecodeEvent reads the document references out of an S3 notification event.
// Object keys arrive form-encoded and are unescaped. Any record missing its
// bucket name or key fails the whole event before processing starts.
func DecodeEvent(raw []byte) ([]DocumentRef, error) {
	if !gjson.ValidBytes(raw) {
		return nil, InputFailure(DocumentRef{}, errors.New("event is not valid JSON"))
	}

	records := gjson.GetBytes(raw, "Records")
	if !records.IsArray() {
		return nil, InputFailure(DocumentRef{}, ErrMissingRecords)
	}

	var refs []DocumentRef
	for i, rec := range records.Array() {
		bucket := rec.Get("s3.bucket.name")
		key := rec.Get("s3.object.key")
		if bucket.Type != gjson.String || key.Type != gjson.String {
			return nil, InputFailure(DocumentRef{}, errors.Wrapf(ErrMalformedRecord, "record %d", i))
		}

		decoded, err := url.QueryUnescape(key.String())
		if err != nil {
			return nil, InputFailure(DocumentRef{Bucket: bucket.String(), Key: key.String()},
				errors.Wrapf(err, "record %d: unescaping object key", i))
		}
		refs = append(refs, DocumentRef{Bucket: bucket.String(), Key: decoded})
	}
	return refs, nil
}
