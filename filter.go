package veneer

import (
	"encoding/base64"
	"fmt"
)

// filterKind identifies an output filter.
type filterKind uint8

const (
	filterMask filterKind = iota + 1
	filterRedact
	filterHash
	filterSeal
)

func (k filterKind) String() string {
	switch k {
	case filterMask:
		return "mask"
	case filterRedact:
		return "redact"
	case filterHash:
		return "hash"
	case filterSeal:
		return "seal"
	default:
		return "unknown"
	}
}

// Filter transforms a resolved value before it is placed in the output.
// Filters apply to strings, string pointers, byte slices and string slices;
// nil passes through.
type Filter struct {
	kind filterKind
	arg  string
}

// String returns the filter in "kind:arg" form.
func (f Filter) String() string {
	return f.kind.String() + ":" + f.arg
}

// withFilter appends f to an entry's filters.
func withFilter(f Filter) EntryOption {
	return func(e *Entry) {
		e.Filters = append(e.Filters, f)
	}
}

// Masked masks the value with the masker registered for mt.
func Masked(mt MaskType) EntryOption {
	return withFilter(Filter{kind: filterMask, arg: string(mt)})
}

// Redacted replaces the value with replacement.
func Redacted(replacement string) EntryOption {
	return withFilter(Filter{kind: filterRedact, arg: replacement})
}

// Hashed replaces the value with its hash under algo.
func Hashed(algo HashAlgo) EntryOption {
	return withFilter(Filter{kind: filterHash, arg: string(algo)})
}

// Sealed replaces the value with its base64 ciphertext under algo.
// The engine must be configured WithEncryptor for algo.
func Sealed(algo EncryptAlgo) EntryOption {
	return withFilter(Filter{kind: filterSeal, arg: string(algo)})
}

// validate checks the filter names a known capability.
func (f Filter) validate() bool {
	switch f.kind {
	case filterMask:
		return IsValidMaskType(MaskType(f.arg))
	case filterRedact:
		return true
	case filterHash:
		return IsValidHashAlgo(HashAlgo(f.arg))
	case filterSeal:
		return IsValidEncryptAlgo(EncryptAlgo(f.arg))
	default:
		return false
	}
}

// applyFilters runs the entry's filters over v in declaration order.
func (c *capabilities) applyFilters(e Entry, v any) (any, error) {
	for _, f := range e.Filters {
		var err error
		v, err = c.applyFilter(f, v)
		if err != nil {
			return nil, &FilterError{Err: ErrUnsupportedFilter, Key: e.Key, Filter: f.String(), Cause: err}
		}
	}
	return v, nil
}

// applyFilter applies one filter to a string, *string, []byte or []string value.
// Nil values, typed or not, pass through as nil.
func (c *capabilities) applyFilter(f Filter, v any) (any, error) {
	if isNil(v) {
		return nil, nil
	}
	if p, ok := v.(*string); ok {
		v = *p
	}
	switch val := v.(type) {
	case string:
		return c.filterString(f, []byte(val))
	case []byte:
		return c.filterString(f, val)
	case []string:
		out := make([]string, len(val))
		for i, s := range val {
			r, err := c.filterString(f, []byte(s))
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot filter %T", v)
	}
}

// filterString applies f to a single value.
func (c *capabilities) filterString(f Filter, b []byte) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch f.kind {
	case filterMask:
		m, ok := c.maskers[MaskType(f.arg)]
		if !ok {
			return "", fmt.Errorf("no masker for %q", f.arg)
		}
		return m.Mask(string(b)), nil
	case filterRedact:
		return f.arg, nil
	case filterHash:
		h, ok := c.hashers[HashAlgo(f.arg)]
		if !ok {
			return "", fmt.Errorf("no hasher for %q", f.arg)
		}
		return h.Hash(b)
	case filterSeal:
		enc, ok := c.encryptors[EncryptAlgo(f.arg)]
		if !ok {
			return "", fmt.Errorf("no encryptor for %q", f.arg)
		}
		sealed, err := enc.Encrypt(b)
		if err != nil {
			return "", err
		}
		return base64.StdEncoding.EncodeToString(sealed), nil
	default:
		return "", fmt.Errorf("unknown filter %s", f)
	}
}
