package userstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/otherus/otherus/pkg/auth"
)

// record is the stored form of auth.User. Unlike the client-facing type it
// serializes the password hash.
type record struct {
	ID           string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	DisplayName  string    `json:"display_name"`
	Bio          string    `json:"bio"`
	Interests    string    `json:"interests"`
	AvatarURL    string    `json:"avatar_url"`
	Location     string    `json:"location"`
	Website      string    `json:"website"`
	Provider     string    `json:"provider"`
	OAuthID      string    `json:"oauth_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newRecord(u *auth.User) record {
	return record{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		DisplayName:  u.DisplayName,
		Bio:          u.Bio,
		Interests:    u.Interests,
		AvatarURL:    u.AvatarURL,
		Location:     u.Location,
		Website:      u.Website,
		Provider:     u.Provider,
		OAuthID:      u.OAuthID,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func (r record) user() *auth.User {
	return &auth.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		DisplayName:  r.DisplayName,
		Bio:          r.Bio,
		Interests:    r.Interests,
		AvatarURL:    r.AvatarURL,
		Location:     r.Location,
		Website:      r.Website,
		Provider:     r.Provider,
		OAuthID:      r.OAuthID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// validate enforces the record invariants at the store boundary.
func (r record) validate() error {
	var errs []error
	if r.ID == "" {
		errs = append(errs, errors.New("empty user_id"))
	}
	if r.Email == "" {
		errs = append(errs, errors.New("empty email"))
	} else if r.Email != strings.ToLower(r.Email) {
		errs = append(errs, errors.New("email is not lowercase"))
	}
	switch r.Provider {
	case auth.ProviderEmail:
		if r.PasswordHash == "" {
			errs = append(errs, errors.New("email account without password hash"))
		}
	case auth.ProviderGoogle, auth.ProviderGitHub:
		if r.OAuthID == "" {
			errs = append(errs, errors.New("oauth account without oauth_id"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", r.Provider))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidRecord}, errs...)...)
	}
	return nil
}

func encodeRecord(u *auth.User) ([]byte, error) {
	if u == nil {
		return nil, ErrInvalidRecord
	}
	r := newRecord(u)
	if err := r.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(r)
}

func decodeRecord(data []byte) (record, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return record{}, errors.Join(ErrCorruptRecord, err)
	}
	return r, nil
}
