package identity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/polkiloo/coursepay/internal/adapter/backend"
	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
	"github.com/polkiloo/coursepay/internal/domain/model"
)

// ProfileLookup fetches the authenticated buyer's profile from backend.
type ProfileLookup interface {
	Profile(ctx context.Context, token string) (*backend.Profile, error)
}

var (
	idKeys      = []string{"id", "_id", "userId", "user_id"}
	emailKeys   = []string{"email"}
	nameKeys    = []string{"name", "fullName", "displayName"}
	contactKeys = []string{"contact", "phone", "mobile"}
	nestedKeys  = []string{"user", "profile", "data"}

	claimIDKeys = []string{"sub", "userId", "id"}
)

// Resolver derives buyer identity from whatever the client stored.
type Resolver struct {
	profiles ProfileLookup
	parser   *jwt.Parser
	logger   *slog.Logger
}

// NewResolver builds Resolver. profiles may be nil when no backend lookup is wanted.
func NewResolver(profiles ProfileLookup, logger *slog.Logger) *Resolver {
	return &Resolver{profiles: profiles, parser: jwt.NewParser(), logger: logger}
}

// Resolve walks stored fields, nested objects, token claims and finally the
// backend profile, stopping at the first source that yields an id or email.
func (r *Resolver) Resolve(ctx context.Context, hints model.BuyerHints) (model.Buyer, error) {
	var buyer model.Buyer

	merge(&buyer, fromFields(hints.Fields))
	if buyer.Identified() {
		return buyer, nil
	}

	for _, nested := range nestedObjects(hints.Fields, 2) {
		merge(&buyer, fromFields(nested))
		if buyer.Identified() {
			return buyer, nil
		}
	}

	if hints.Token == "" {
		return buyer, domainErrors.ErrIdentityUnresolved
	}

	merge(&buyer, r.fromClaims(hints.Token))
	if buyer.Identified() {
		return buyer, nil
	}

	if r.profiles != nil {
		profile, err := r.profiles.Profile(ctx, hints.Token)
		switch {
		case err == nil && profile != nil:
			merge(&buyer, model.Buyer{UserID: profile.ID, Email: profile.Email, Name: profile.Name, Contact: profile.Contact})
		case errors.Is(err, context.Canceled):
			return buyer, err
		case err != nil:
			r.logger.Warn("profile lookup failed", slog.String("error", err.Error()))
		}
	}

	if !buyer.Identified() {
		return buyer, domainErrors.ErrIdentityUnresolved
	}
	return buyer, nil
}

func (r *Resolver) fromClaims(token string) model.Buyer {
	claims := jwt.MapClaims{}
	// signature is checked by backend, which owns the signing key
	if _, _, err := r.parser.ParseUnverified(token, claims); err != nil {
		r.logger.Debug("bearer token is not a readable jwt", slog.String("error", err.Error()))
		return model.Buyer{}
	}
	return model.Buyer{
		UserID: firstString(claims, claimIDKeys),
		Email:  firstString(claims, emailKeys),
		Name:   firstString(claims, nameKeys),
	}
}

func fromFields(fields map[string]any) model.Buyer {
	if len(fields) == 0 {
		return model.Buyer{}
	}
	return model.Buyer{
		UserID:  firstString(fields, idKeys),
		Email:   firstString(fields, emailKeys),
		Name:    firstString(fields, nameKeys),
		Contact: firstString(fields, contactKeys),
	}
}

// nestedObjects returns user/profile/data objects breadth first, up to depth levels.
func nestedObjects(fields map[string]any, depth int) []map[string]any {
	var out []map[string]any
	level := []map[string]any{fields}
	for d := 0; d < depth; d++ {
		var next []map[string]any
		for _, obj := range level {
			for _, key := range nestedKeys {
				if child, ok := obj[key].(map[string]any); ok {
					next = append(next, child)
				}
			}
		}
		out = append(out, next...)
		level = next
	}
	return out
}

func merge(dst *model.Buyer, src model.Buyer) {
	if dst.UserID == "" {
		dst.UserID = src.UserID
	}
	if dst.Email == "" {
		dst.Email = src.Email
	}
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Contact == "" {
		dst.Contact = src.Contact
	}
}

func firstString(fields map[string]any, keys []string) string {
	for _, key := range keys {
		if s := stringify(fields[key]); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}
