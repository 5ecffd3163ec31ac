package wavfile

import (
	"strings"

	"github.com/iancoleman/orderedmap"
)

// Metadata tag identifiers stored in the trailing id3 block.
const (
	TagName    = "NAME"
	TagSurname = "SURN"
	TagDate    = "DATE"
	TagTime    = "TIME"
	TagTitle   = "TITL"
	TagComment = "COMM"
)

const metadataMarker = "id3 "

// legacyUnset is what older recordings contain for fields that were never filled in.
const legacyUnset = "null"

// KnownTags lists the tags every container carries, in serialization order.
var KnownTags = []string{TagName, TagSurname, TagDate, TagTime, TagTitle, TagComment}

// Metadata is an insertion-ordered tag mapping. The known tags always exist;
// an empty value means the tag is unset.
type Metadata struct {
	m *orderedmap.OrderedMap
}

// NewMetadata returns a mapping with every known tag present and unset.
func NewMetadata() *Metadata {
	m := orderedmap.New()
	for _, tag := range KnownTags {
		m.Set(tag, "")
	}
	return &Metadata{m: m}
}

// Get returns the value for tag, or "" when unset or unknown.
func (md *Metadata) Get(tag string) string {
	v, ok := md.m.Get(tag)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Lookup reports whether tag is present in the mapping.
func (md *Metadata) Lookup(tag string) (string, bool) {
	v, ok := md.m.Get(tag)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, true
}

// Set assigns value to tag. New tags are appended after existing ones.
func (md *Metadata) Set(tag, value string) {
	md.m.Set(tag, value)
}

// Tags returns the tag identifiers in serialization order.
func (md *Metadata) Tags() []string {
	return append([]string(nil), md.m.Keys()...)
}

// Clone returns an independent copy preserving order.
func (md *Metadata) Clone() *Metadata {
	c := orderedmap.New()
	for _, k := range md.m.Keys() {
		v, _ := md.m.Get(k)
		c.Set(k, v)
	}
	return &Metadata{m: c}
}

// Equal reports whether both mappings hold the same tags and values.
func (md *Metadata) Equal(other *Metadata) bool {
	a, b := md.Tags(), other.Tags()
	if len(a) != len(b) {
		return false
	}
	for _, k := range a {
		v, ok := other.Lookup(k)
		if !ok || v != md.Get(k) {
			return false
		}
	}
	return true
}

// encodeMetadata renders the block as "id3 " followed by KEY:value; records.
// Values cannot contain ';', the format has no escaping.
func encodeMetadata(md *Metadata) []byte {
	var b strings.Builder
	b.WriteString(metadataMarker)
	for _, k := range md.Tags() {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(md.Get(k))
		b.WriteByte(';')
	}
	return []byte(b.String())
}

// decodeMetadata parses a block produced by encodeMetadata or by the legacy
// recorder. Known tags missing from the block stay unset.
func decodeMetadata(p []byte) *Metadata {
	md := NewMetadata()

	s := string(p)
	i := strings.Index(s, metadataMarker)
	if i < 0 {
		return md
	}
	s = s[i+len(metadataMarker):]

	for _, rec := range strings.Split(s, ";") {
		if rec == "" {
			continue
		}
		key, value, ok := strings.Cut(rec, ":")
		if !ok {
			continue
		}
		if value == legacyUnset {
			value = ""
		}
		md.Set(key, value)
	}
	return md
}
