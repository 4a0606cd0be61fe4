package dynamo

// DynamoDB attribute names used in keys and expressions across all repos.
const (
	fieldDomain   = "domain"
	fieldEmail    = "email"
	fieldUsername = "username"
	fieldCode     = "code"
	fieldUsed     = "used"
	fieldTTL      = "ttl"

	fieldVerified              = "verified"
	fieldBanned                = "banned"
	fieldBannedBy              = "banned_by"
	fieldTrustedTokenHash      = "trusted_token_hash"
	fieldTrustedTokenExpiresAt = "trusted_token_expires_at"
	fieldUniversityDomain      = "university_domain"
	fieldUpdatedAt             = "updated_at"
)
