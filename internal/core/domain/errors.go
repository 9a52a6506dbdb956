package domain

import "errors"

var (
	ErrInvalidRating     = errors.New("invalid rating")
	ErrInvalidAge        = errors.New("invalid review age")
	ErrInvalidLimit      = errors.New("invalid limit")
	ErrInvalidDomain     = errors.New("invalid domain")
	ErrDomainNotFound    = errors.New("domain not found")
	ErrSourceUnavailable = errors.New("review source unavailable")
)

// Error kinds exposed to callers. Transports map them to their own status codes.
const (
	KindInvalidRating     = "invalid_rating"
	KindInvalidAge        = "invalid_age"
	KindInvalidLimit      = "invalid_limit"
	KindInvalidDomain     = "invalid_domain"
	KindDomainNotFound    = "domain_not_found"
	KindSourceUnavailable = "source_unavailable"
	KindInternal          = "internal"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidRating, KindInvalidRating},
	{ErrInvalidAge, KindInvalidAge},
	{ErrInvalidLimit, KindInvalidLimit},
	{ErrInvalidDomain, KindInvalidDomain},
	{ErrDomainNotFound, KindDomainNotFound},
	{ErrSourceUnavailable, KindSourceUnavailable},
}

// ErrorKind returns the kind of the first taxonomy error found in err's chain,
// or KindInternal when err carries none of them.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsKnown reports whether err belongs to the trust score error taxonomy.
func IsKnown(err error) bool {
	return err != nil && ErrorKind(err) != KindInternal
}
