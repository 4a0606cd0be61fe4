package domain

import (
	"strings"
	"time"
)

// University is seeded reference data. Domain is the join key from an email address.
type University struct {
	UniversityID string    `json:"id" dynamodbav:"university_id"`
	Name         string    `json:"name" dynamodbav:"name"`
	Domain       string    `json:"domain" dynamodbav:"domain"`
	CreatedAt    time.Time `json:"-" dynamodbav:"created_at"`
}

// Branding describes the one university whose marketplace has its own name and path.
type Branding struct {
	Domain          string
	BrandName       string
	MarketplacePath string
}

// MarketplaceURL returns the storefront path for u.
func (b Branding) MarketplaceURL(u *University) string {
	if u.Domain == b.Domain {
		return b.MarketplacePath
	}
	return "/" + strings.ReplaceAll(u.Domain, ".", "-")
}

// MarketplaceName returns the storefront display name for u.
func (b Branding) MarketplaceName(u *University) string {
	if u.Domain == b.Domain {
		return b.BrandName
	}
	return u.Name + " Marketplace"
}

// SupportedUniversity is a University with its derived marketplace fields.
type SupportedUniversity struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Domain          string `json:"domain"`
	MarketplaceURL  string `json:"marketplaceUrl"`
	MarketplaceName string `json:"marketplaceName"`
}

// EmailDomain returns the lower-cased portion of email after the last '@'.
func EmailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
