package cache

// IndexKeyOpts are the build options that change a serialized index.
type IndexKeyOpts struct {
	Cap int64 `json:"cap"`
}

// Keyer derives cache keys.
type Keyer interface {
	// IndexKey is the key of an index built from the input with the given
	// content hash.
	IndexKey(inputHash string, opts IndexKeyOpts) string

	// QueryKey is the key of one query answer against an index.
	QueryKey(indexID, kind, from, to string) string
}

// DefaultKeyer produces "index:<sha256>" and "query:<id>:<kind>:<from>:<to>"
// keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// IndexKey hashes the input hash together with the options.
func (DefaultKeyer) IndexKey(inputHash string, opts IndexKeyOpts) string {
	return hashKey("index", inputHash, opts)
}

// QueryKey joins its parts; positions are already canonical strings.
func (DefaultKeyer) QueryKey(indexID, kind, from, to string) string {
	return "query:" + indexID + ":" + kind + ":" + from + ":" + to
}

var _ Keyer = DefaultKeyer{}
