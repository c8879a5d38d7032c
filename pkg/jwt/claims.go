package jwt

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var errBadNumericDate = errors.New("jwt: malformed numeric date")

// accessClaims is the {sub, iat, exp} payload. Times keep nanosecond
// precision on the wire so a token lives exactly its TTL.
type accessClaims struct {
	Subject   string   `json:"sub,omitempty"`
	IssuedAt  *instant `json:"iat,omitempty"`
	ExpiresAt *instant `json:"exp,omitempty"`
}

func (c accessClaims) GetExpirationTime() (*gojwt.NumericDate, error) {
	return c.ExpiresAt.numericDate(), nil
}

func (c accessClaims) GetIssuedAt() (*gojwt.NumericDate, error) {
	return c.IssuedAt.numericDate(), nil
}

func (c accessClaims) GetNotBefore() (*gojwt.NumericDate, error) { return nil, nil }

func (c accessClaims) GetIssuer() (string, error) { return "", nil }

func (c accessClaims) GetSubject() (string, error) { return c.Subject, nil }

func (c accessClaims) GetAudience() (gojwt.ClaimStrings, error) { return nil, nil }

// instant is a NumericDate written as seconds with a nine digit fraction.
// Integer values, as other issuers write them, decode too.
type instant time.Time

func newInstant(t time.Time) *instant {
	i := instant(t)
	return &i
}

func (i *instant) numericDate() *gojwt.NumericDate {
	if i == nil {
		return nil
	}
	// Built directly so the time is not truncated to gojwt.TimePrecision.
	return &gojwt.NumericDate{Time: time.Time(*i)}
}

func (i instant) MarshalJSON() ([]byte, error) {
	ns := time.Time(i).UnixNano()
	sec, frac := ns/int64(time.Second), ns%int64(time.Second)
	if frac < 0 {
		sec--
		frac += int64(time.Second)
	}
	return fmt.Appendf(nil, "%d.%09d", sec, frac), nil
}

func (i *instant) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.Join(errBadNumericDate, err)
		}
		*i = instant(time.Unix(0, int64(f*float64(time.Second))))
		return nil
	}

	whole, frac, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return errors.Join(errBadNumericDate, err)
	}

	var nsec int64
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		frac += strings.Repeat("0", 9-len(frac))
		if strings.ContainsAny(frac, "+-") {
			return errBadNumericDate
		}
		if nsec, err = strconv.ParseInt(frac, 10, 64); err != nil {
			return errors.Join(errBadNumericDate, err)
		}
		if strings.HasPrefix(whole, "-") {
			nsec = -nsec
		}
	}

	*i = instant(time.Unix(sec, nsec))
	return nil
}
